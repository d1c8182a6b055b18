package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Game(view GameView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, "Wiki Race")
		_, _ = io.WriteString(w, `    <main class="shell game">
      <iframe id="page" title="article" src="about:blank"></iframe>
      <aside>
        <section class="panel">
          <p>Playing as <strong>`+esc(view.MemberName)+`</strong></p>
          <p>Invite link: <code id="invite"></code></p>
          <p id="target"></p>
          <p id="timer"></p>
          <p id="status"></p>
`)
		if view.IsAdmin {
			_, _ = io.WriteString(w, `          <button id="newRound">New round</button>
          <button id="finishEarly">Finish round</button>
`)
		}
		_, _ = io.WriteString(w, `        </section>
        <section class="panel">
          <h2>Leaderboard</h2>
          <ol id="leaderboard"></ol>
        </section>
        <section class="panel" id="solution" hidden>
          <h2>Solution</h2>
          <ol id="solutionPath"></ol>
        </section>
      </aside>
    </main>

    <script>
      const partyID = `+jsString(view.PartyID)+`;
      const frame = document.getElementById("page");
      const target = document.getElementById("target");
      const timer = document.getElementById("timer");
      const status = document.getElementById("status");
      const board = document.getElementById("leaderboard");
      const solution = document.getElementById("solution");
      const solutionPath = document.getElementById("solutionPath");
      document.getElementById("invite").textContent = location.origin + "/join/" + partyID;

      const scheme = location.protocol === "https:" ? "wss://" : "ws://";
      const socket = new WebSocket(scheme + location.host + `+jsString(view.WSPath)+`);
      let deadline = 0;
      let ticker = null;

      function show(page) {
        frame.src = "/wiki/" + encodeURIComponent(page);
      }

      function tick() {
        const left = Math.max(0, Math.round((deadline - Date.now()) / 1000));
        timer.textContent = left + "s left";
        if (left === 0 && ticker) {
          clearInterval(ticker);
          ticker = null;
        }
      }

      function renderBoard(entries) {
        board.innerHTML = "";
        for (const entry of entries || []) {
          const item = document.createElement("li");
          item.textContent = entry.name + (entry.is_admin ? " (host)" : "") + " - " + entry.points;
          board.appendChild(item);
        }
      }

      const handlers = {
        new_round(data) {
          solution.hidden = true;
          status.textContent = "";
          status.className = "";
          target.textContent = "From " + data.start_page + " to " + data.end_page;
          deadline = Date.now() + data.time_limit * 1000;
          if (ticker) clearInterval(ticker);
          ticker = setInterval(tick, 1000);
          tick();
          show(data.start_page);
        },
        force_redirect(data) {
          show(data.page);
        },
        solved() {
          status.textContent = "Solved!";
          status.className = "solved";
        },
        leaderboard_update(data) {
          renderBoard(data.leaderboards);
        },
        round_finished(data) {
          if (ticker) clearInterval(ticker);
          ticker = null;
          timer.textContent = "Round over";
          renderBoard(data.leaderboards);
          solutionPath.innerHTML = "";
          for (const page of data.solution || []) {
            const item = document.createElement("li");
            item.textContent = page;
            solutionPath.appendChild(item);
          }
          solution.hidden = false;
        },
      };

      socket.addEventListener("message", (event) => {
        const message = JSON.parse(event.data);
        if (message.error) {
          status.textContent = message.error;
          status.className = "error";
          return;
        }
        const handler = handlers[message.type];
        if (handler) handler(message.data || {});
      });

      window.addEventListener("message", (event) => {
        if (event.source !== frame.contentWindow) return;
        const data = event.data || {};
        if (data.type === "click" && data.destination) {
          socket.send(JSON.stringify({ type: "click", destination: data.destination }));
        }
      });
`)
		if view.IsAdmin {
			_, _ = io.WriteString(w, `
      document.getElementById("newRound").addEventListener("click", () => {
        status.textContent = "Generating round...";
        status.className = "";
        socket.send(JSON.stringify({ type: "new_round" }));
      });
      document.getElementById("finishEarly").addEventListener("click", () => {
        socket.send(JSON.stringify({ type: "finish_early" }));
      });
`)
		}
		_, _ = io.WriteString(w, `    </script>
`)
		writeFoot(w)
		return nil
	})
}
