package db

import (
	"context"
	"encoding/csv"
	"os"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadSeedPages reads article titles from a CSV and inserts the ones not
// already in the seed_pages table. The first row is a header; the title is
// the first column.
func LoadSeedPages(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	titles, err := readSeedTitles(path)
	if err != nil {
		return 0, err
	}
	if len(titles) == 0 {
		return 0, nil
	}
	entries := make([]SeedPage, 0, len(titles))
	for _, title := range titles {
		entries = append(entries, SeedPage{Title: title})
	}
	result := conn.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&entries, 500)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func readSeedTitles(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var titles []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		title := strings.TrimSpace(row[0])
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	return titles, nil
}

// SeedPool picks random seed articles for the round generator.
type SeedPool struct {
	conn *gorm.DB
}

func NewSeedPool(conn *gorm.DB) *SeedPool {
	return &SeedPool{conn: conn}
}

// RandomSeed returns an empty title when the pool is empty.
func (p *SeedPool) RandomSeed(ctx context.Context) (string, error) {
	var titles []string
	err := p.conn.WithContext(ctx).
		Model(&SeedPage{}).
		Order("random()").
		Limit(1).
		Pluck("title", &titles).Error
	if err != nil {
		return "", storageError(err)
	}
	if len(titles) == 0 {
		return "", nil
	}
	return titles[0], nil
}
