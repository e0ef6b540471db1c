package main

// The browser clients are deliberately small: a single inline page per
// surface, no build step, no framework. The duel page keeps only view
// state; everything authoritative arrives over the WebSocket.

const pageStyle = `<style>
body{font-family:sans-serif;max-width:36rem;margin:2rem auto;padding:0 1rem;text-align:center;}
input,button{font-size:1.1rem;padding:.5rem;margin:.25rem;}
button{cursor:pointer;}
#desc{font-size:1.4rem;margin:1.5rem 0;min-height:3rem;}
#timer{font-size:2rem;font-weight:bold;}
#scores{display:flex;justify-content:space-around;margin:1rem 0;}
#hints p{color:#666;}
#typing{color:#999;font-style:italic;min-height:1.2rem;}
.hidden{display:none;}
</style>`

func duelLobbyPage(prefix string) string {
	return `<!DOCTYPE html><html lang="he" dir="rtl"><head><meta charset="utf-8">` +
		`<meta name="viewport" content="width=device-width, initial-scale=1">` +
		getFavicon() + `<title>דו-קרב מילים</title>` + pageStyle + `</head><body>
<h1>דו-קרב מילים</h1>
<div>
  <input id="name" placeholder="השם שלך" maxlength="24">
</div>
<div>
  <button id="create">צור חדר חדש</button>
</div>
<div>
  <input id="code" placeholder="קוד חדר" maxlength="5" style="text-transform:uppercase">
  <button id="join">הצטרף</button>
</div>
<p id="error"></p>
<script>
const prefix = ` + "`" + prefix + "`" + `;
const err = document.getElementById('error');
async function post(url) {
  const name = document.getElementById('name').value;
  const resp = await fetch(url, {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({name})
  });
  const body = await resp.json();
  if (!resp.ok) { err.textContent = body.error || 'שגיאה'; return; }
  window.location = body.url;
}
document.getElementById('create').onclick = () => post(prefix + '/api/duel/rooms');
document.getElementById('join').onclick = () => {
  const code = document.getElementById('code').value.trim().toUpperCase();
  if (code.length !== 5) { err.textContent = 'קוד חדר בן 5 תווים'; return; }
  post(prefix + '/api/duel/rooms/' + code + '/join');
};
</script>
</body></html>`
}

func duelRoomPage(prefix, code string) string {
	return `<!DOCTYPE html><html lang="he" dir="rtl"><head><meta charset="utf-8">` +
		`<meta name="viewport" content="width=device-width, initial-scale=1">` +
		getFavicon() + `<title>חדר ` + code + `</title>` + pageStyle + `</head><body>
<h1>חדר <span id="roomcode">` + code + `</span></h1>
<p><img id="qr" src="` + prefix + `/duel/` + code + `/qr" width="160" height="160" alt="QR"></p>
<div id="waiting">
  <p id="players"></p>
  <button id="start" class="hidden">התחל משחק</button>
</div>
<div id="game" class="hidden">
  <div id="scores"><span id="p1"></span><span id="p2"></span></div>
  <div id="countdown"></div>
  <div id="timer"></div>
  <div id="desc"></div>
  <div id="hints"></div>
  <input id="guess" placeholder="מה המילה?" autocomplete="off">
  <button id="send">נחש</button>
  <button id="hint">רמז</button>
  <p id="result"></p>
  <p id="typing"></p>
</div>
<div id="finished" class="hidden"><h2 id="outcome"></h2></div>
<script>
const prefix = ` + "`" + prefix + "`" + `;
const code = ` + "`" + code + "`" + `;
const wsScheme = location.protocol === 'https:' ? 'wss:' : 'ws:';
const ws = new WebSocket(wsScheme + '//' + location.host + prefix + '/duel/' + code + '/ws');
const el = id => document.getElementById(id);
let seat = 0;

function show(phase) {
  el('waiting').classList.toggle('hidden', phase !== 'waiting' && phase !== 'loading');
  el('game').classList.toggle('hidden', phase !== 'countdown' && phase !== 'playing');
  el('finished').classList.toggle('hidden', phase !== 'finished');
}

function render(st) {
  show(st.phase);
  seat = st.seat;
  const room = st.room;
  if (!room) return;
  if (st.phase === 'waiting' || st.phase === 'loading') {
    el('players').textContent = room.player2_name
      ? room.player1_name + ' נגד ' + room.player2_name
      : room.player1_name + ' ממתין ליריב...';
    el('start').classList.toggle('hidden', !(seat === 1 && room.player2_name));
    return;
  }
  el('p1').textContent = room.player1_name + ': ' + room.player1_score;
  el('p2').textContent = (room.player2_name || '') + ': ' + room.player2_score;
  el('countdown').textContent = st.countdown ? st.countdown : '';
  el('timer').textContent = st.phase === 'playing' ? st.time_left : '';
  el('desc').textContent = (st.description || '') +
    ' (' + (room.current_word_index + 1) + '/' + room.total_words + ')';
  el('hints').innerHTML = (st.hints || []).map(h => '<p>' + h + '</p>').join('');
  if (st.phase === 'finished') {
    const mine = seat === 2 ? room.player2_score : room.player1_score;
    const theirs = seat === 2 ? room.player1_score : room.player2_score;
    el('outcome').textContent = mine > theirs ? 'ניצחת!' : mine < theirs ? 'הפסדת' : 'תיקו';
  }
}

ws.onmessage = e => {
  const msg = JSON.parse(e.data);
  if (msg.type === 'state') render(msg.state);
  if (msg.type === 'result') {
    el('result').textContent = msg.correct ? 'נכון!' : 'לא נכון, נסה שוב';
    if (msg.correct) el('guess').value = '';
  }
  if (msg.type === 'typing') {
    el('typing').textContent = msg.player_id ? 'היריב מקליד...' : '';
  }
  if (msg.type === 'error') el('result').textContent = msg.error;
};

el('start').onclick = () => ws.send(JSON.stringify({type: 'start'}));
el('send').onclick = () => {
  const guess = el('guess').value.trim();
  if (guess) ws.send(JSON.stringify({type: 'guess', guess}));
};
el('hint').onclick = () => ws.send(JSON.stringify({type: 'hint'}));
el('guess').addEventListener('keydown', e => {
  if (e.key === 'Enter') { el('send').click(); return; }
  ws.send(JSON.stringify({type: 'typing'}));
});
</script>
</body></html>`
}
