package web

// indexHTML is a minimal test page for poking the chat API by hand.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Concierge</title>
<style>
  body { font-family: sans-serif; max-width: 720px; margin: 2em auto; }
  #log { border: 1px solid #ccc; padding: 1em; height: 360px; overflow-y: auto; white-space: pre-wrap; }
  .user { color: #06c; }
  .thinking { color: #999; font-style: italic; }
  .error { color: #c00; }
  form { display: flex; gap: .5em; margin-top: 1em; }
  input[type=text] { flex: 1; padding: .5em; }
</style>
</head>
<body>
<h1>Concierge test console</h1>
<div id="log"></div>
<form id="form">
  <input type="text" id="msg" placeholder="Type a message..." autocomplete="off">
  <button type="submit">Send</button>
</form>
<script>
const log = document.getElementById('log');
let conversationId = null;

function append(cls, text) {
  const div = document.createElement('div');
  div.className = cls;
  div.textContent = text;
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
  return div;
}

document.getElementById('form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const input = document.getElementById('msg');
  const message = input.value.trim();
  if (!message) return;
  input.value = '';
  append('user', 'you: ' + message);

  const res = await fetch('/agents/chat', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({message, conversation_id: conversationId})
  });
  conversationId = res.headers.get('X-Conversation-ID') || conversationId;

  const reader = res.body.getReader();
  const decoder = new TextDecoder();
  let buffer = '';
  let reply = append('', 'agent: ');
  while (true) {
    const {done, value} = await reader.read();
    if (done) break;
    buffer += decoder.decode(value, {stream: true});
    const frames = buffer.split('\n\n');
    buffer = frames.pop();
    for (const frame of frames) {
      if (!frame.startsWith('data: ')) continue;
      const ev = JSON.parse(frame.slice(6));
      if (ev.type === 'content') reply.textContent += ev.chunk;
      else if (ev.type === 'error') append('error', ev.error);
    }
  }
});
</script>
</body>
</html>
`
