// Solo quiz: a single-player run through a freshly selected word
// sequence. Nothing is persisted; the browser keeps the session and the
// server only selects words and arbitrates guesses.

package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"miladuel/answer"
	"miladuel/words"
)

const (
	soloDefaultWords = 10
	soloMaxWords     = 30
)

type soloWord struct {
	Word        string   `json:"word"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Hints       []string `json:"hints"`
}

type soloSession struct {
	Words        []soloWord `json:"words"`
	WordDuration int        `json:"word_duration"`
}

func soloSessionHandler(cfg *Config, catalog *words.Cache, log *logrus.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		count := soloDefaultWords
		if raw := r.URL.Query().Get("count"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				count = n
			}
		}
		if count > soloMaxWords {
			count = soloMaxWords
		}

		c, err := catalog.Get(r.Context())
		if err != nil {
			log.WithError(err).Error("SOLO: catalog load failed")
			writeJSONError(w, http.StatusInternalServerError, "word catalog unavailable")
			return
		}

		selected := words.Select(c, count)
		out := make([]soloWord, len(selected))
		for i, sw := range selected {
			out[i] = soloWord{
				Word:        sw.Word,
				Category:    c.CategoryName(sw.Category),
				Description: sw.Description(words.DescriptionTier(i)),
				Hints:       answer.Hints(sw),
			}
		}

		writeJSON(w, http.StatusOK, soloSession{
			Words:        out,
			WordDuration: int(cfg.wordDuration / time.Second),
		})
	}
}

type soloGuessRequest struct {
	Word      string `json:"word"`
	Guess     string `json:"guess"`
	HintsUsed int    `json:"hints_used"`
}

type soloGuessResponse struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

func soloGuessHandler(cfg *Config, catalog *words.Cache, log *logrus.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		var req soloGuessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Word == "" {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var synonyms []string
		if c, err := catalog.Get(r.Context()); err == nil {
			if sw, ok := c.Lookup(req.Word); ok {
				synonyms = sw.Synonyms
			}
		}

		correct := answer.Matches(req.Guess, req.Word, synonyms)
		writeJSON(w, http.StatusOK, soloGuessResponse{
			Correct: correct,
			Score:   answer.SoloScore(correct, req.HintsUsed),
		})
	}
}

func serveSoloPage(cfg *Config) httprouter.Handle {
	page := soloPage(cfg.prefix)

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(page))
	}
}

func registerSoloGame(cfg *Config, catalog *words.Cache, log *logrus.Logger, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/solo", serveSoloPage(cfg))

	mux.GET(cfg.prefix+"/api/solo/session", soloSessionHandler(cfg, catalog, log))

	mux.POST(cfg.prefix+"/api/solo/guess", soloGuessHandler(cfg, catalog, log))
}

func soloPage(prefix string) string {
	return `<!DOCTYPE html><html lang="he" dir="rtl"><head><meta charset="utf-8">` +
		`<meta name="viewport" content="width=device-width, initial-scale=1">` +
		getFavicon() + `<title>חידון יחיד</title>` + pageStyle + `</head><body>
<h1>חידון יחיד</h1>
<div id="timer"></div>
<div id="desc"></div>
<div id="hints"></div>
<input id="guess" placeholder="מה המילה?" autocomplete="off">
<button id="send">נחש</button>
<button id="hint">רמז</button>
<p id="result"></p>
<h2 id="score"></h2>
<script>
const prefix = ` + "`" + prefix + "`" + `;
const el = id => document.getElementById(id);
let session, i = 0, total = 0, hintsUsed = 0, left = 0, ticker;

function next() {
  hintsUsed = 0;
  el('hints').innerHTML = '';
  el('result').textContent = '';
  el('guess').value = '';
  if (!session || i >= session.words.length) {
    clearInterval(ticker);
    el('timer').textContent = '';
    el('desc').textContent = '';
    el('score').textContent = 'ניקוד סופי: ' + total;
    return;
  }
  const w = session.words[i];
  el('desc').textContent = w.description + ' (' + (i + 1) + '/' + session.words.length + ')';
  left = session.word_duration;
  el('timer').textContent = left;
}

fetch(prefix + '/api/solo/session').then(r => r.json()).then(s => {
  session = s;
  next();
  ticker = setInterval(() => {
    if (--left <= 0) { i++; next(); return; }
    el('timer').textContent = left;
  }, 1000);
});

el('send').onclick = async () => {
  const guess = el('guess').value.trim();
  if (!guess || !session) return;
  const resp = await fetch(prefix + '/api/solo/guess', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({word: session.words[i].word, guess, hints_used: hintsUsed})
  });
  const body = await resp.json();
  if (body.correct) {
    total += body.score;
    el('score').textContent = 'ניקוד: ' + total;
    i++;
    next();
  } else {
    el('result').textContent = 'לא נכון, נסה שוב';
  }
};

el('hint').onclick = () => {
  const w = session && session.words[i];
  if (!w || hintsUsed >= w.hints.length) return;
  el('hints').innerHTML += '<p>' + w.hints[hintsUsed++] + '</p>';
};

el('guess').addEventListener('keydown', e => {
  if (e.key === 'Enter') el('send').click();
});
</script>
</body></html>`
}
