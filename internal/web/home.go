package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, "Wiki Race")
		_, _ = io.WriteString(w, `    <main class="shell">
      <header>
        <h1>Wiki Race</h1>
        <p>Race your friends from one article to another using nothing but links.</p>
      </header>

      <section class="panel">
        <h2>Host a party</h2>
        <p><a href="/new">Create a new party</a> and share the link with your players.</p>
      </section>

      <section class="panel">
        <h2>Join a party</h2>
        <form action="/api/enter" method="get">
          <input name="game_id" placeholder="Party id" autocomplete="off" required/>
          <input name="name" placeholder="Display name" autocomplete="nickname" required/>
          <button type="submit">Join</button>
        </form>
      </section>
    </main>
`)
		writeFoot(w)
		return nil
	})
}

func NewParty(view NewPartyView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, "New party - Wiki Race")
		_, _ = io.WriteString(w, `    <main class="shell">
      <section class="panel">
        <h1>New party</h1>
`)
		if view.Error != "" {
			_, _ = io.WriteString(w, `        <p class="error">`+esc(view.Error)+`</p>
`)
		}
		_, _ = io.WriteString(w, `        <form action="/api/create" method="get">
          <label>Your name <input name="name" required maxlength="20"/></label>
          <label>Round time (seconds)
            <input name="time_limit_seconds" type="number" required
              min="`+itoa(view.MinSeconds)+`" max="`+itoa(view.MaxSeconds)+`" value="`+itoa(view.DefaultSeconds)+`"/>
          </label>
          <button type="submit">Create</button>
        </form>
      </section>
    </main>
`)
		writeFoot(w)
		return nil
	})
}

func Join(view JoinView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, "Join party - Wiki Race")
		_, _ = io.WriteString(w, `    <main class="shell">
      <section class="panel">
        <h1>Join party</h1>
`)
		if view.Error != "" {
			_, _ = io.WriteString(w, `        <p class="error">`+esc(view.Error)+`</p>
`)
		}
		_, _ = io.WriteString(w, `        <form action="/api/enter" method="get">
          <input type="hidden" name="game_id" value="`+esc(view.PartyID)+`"/>
          <label>Your name <input name="name" required maxlength="20"/></label>
          <button type="submit">Join</button>
        </form>
      </section>
    </main>
`)
		writeFoot(w)
		return nil
	})
}

func WikiPage(view WikiView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, view.Title)
		_, _ = io.WriteString(w, `    <main class="shell">
      <h1>`+esc(view.Title)+`</h1>
      <article>
`)
		// view.HTML has already been rewritten by wiki.FormatHTML.
		_, _ = io.WriteString(w, view.HTML)
		_, _ = io.WriteString(w, `
      </article>
    </main>
`)
		writeFoot(w)
		return nil
	})
}
