// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

// indexHTML is the demo page. Its script is the browser twin of the
// Go streaming consumer: it splits the answer body on newlines, keeps
// incomplete trailing fragments in the buffer, appends content, and
// replaces citations.
const indexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>paper-finder</title>
  <style>
    body { font-family: "Segoe UI", sans-serif; margin: 0; background: #f7fafc; color: #1f2937; }
    .wrap { max-width: 900px; margin: 0 auto; padding: 20px; }
    .panel { background: #fff; border-radius: 12px; box-shadow: 0 8px 30px rgba(15,23,42,.08); padding: 16px; margin-bottom: 16px; }
    #answer { min-height: 120px; white-space: pre-wrap; border: 1px solid #d1d5db; border-radius: 8px; padding: 12px; background: #f9fafb; }
    #citations li { margin: 4px 0; }
    #results li { margin: 8px 0; }
    .row { display: flex; gap: 8px; margin-top: 10px; }
    input { flex: 1; padding: 10px; border: 1px solid #cbd5e1; border-radius: 8px; }
    button { padding: 10px 16px; border: 0; border-radius: 8px; background: #0f766e; color: #fff; cursor: pointer; }
    button:hover { background: #0d9488; }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="panel">
      <h2>paper-finder</h2>
      <div class="row">
        <input id="query" placeholder="Ask a research question..." />
        <button id="ask">Ask</button>
        <button id="search">Search</button>
      </div>
    </div>
    <div class="panel">
      <h3>Answer</h3>
      <div id="answer"></div>
      <ul id="citations"></ul>
    </div>
    <div class="panel">
      <h3>Papers</h3>
      <ul id="results"></ul>
    </div>
  </div>
  <script>
    const queryInput = document.getElementById('query');
    const answerEl = document.getElementById('answer');
    const citationsEl = document.getElementById('citations');
    const resultsEl = document.getElementById('results');
    let askController = null;

    function renderCitations(citations) {
      citationsEl.innerHTML = '';
      for (const c of citations) {
        const li = document.createElement('li');
        const a = document.createElement('a');
        a.href = c.url;
        a.textContent = c.title || c.url;
        a.target = '_blank';
        li.appendChild(a);
        citationsEl.appendChild(li);
      }
    }

    async function ask() {
      const query = queryInput.value.trim();
      if (!query) return;
      if (askController) askController.abort();     // supersede the in-flight question
      askController = new AbortController();
      answerEl.textContent = '';
      citationsEl.innerHTML = '';

      const resp = await fetch('/api/answer', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ query }),
        signal: askController.signal,
      });
      if (!resp.ok) {
        const data = await resp.json().catch(() => ({}));
        answerEl.textContent = data.error || ('request failed: ' + resp.status);
        return;
      }

      const reader = resp.body.getReader();
      const decoder = new TextDecoder();
      let buffer = '';
      for (;;) {
        const { done, value } = await reader.read();
        if (done) break;
        buffer += decoder.decode(value, { stream: true });
        const lines = buffer.split('\n');
        buffer = lines.pop();                       // incomplete fragment stays buffered
        for (const line of lines) {
          if (!line.trim()) continue;
          let record;
          try { record = JSON.parse(line); } catch { continue; }
          if (record.content) answerEl.textContent += record.content;
          if (record.citations !== undefined) renderCitations(record.citations);
        }
      }
    }

    async function searchPapers() {
      const query = queryInput.value.trim();
      if (!query) return;
      resultsEl.innerHTML = '';
      const resp = await fetch('/api/search', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ query }),
      });
      const data = await resp.json();
      for (const paper of data.results || []) {
        const li = document.createElement('li');
        const a = document.createElement('a');
        a.href = paper.url;
        a.textContent = paper.title || paper.url;
        a.target = '_blank';
        li.appendChild(a);
        if (paper.summary) {
          const p = document.createElement('div');
          p.textContent = paper.summary;
          li.appendChild(p);
        }
        resultsEl.appendChild(li);
      }
    }

    // Fire both calls in parallel; neither failure affects the other.
    function go() {
      ask().catch(() => {});
      searchPapers().catch(() => {});
    }

    document.getElementById('ask').addEventListener('click', () => ask().catch(() => {}));
    document.getElementById('search').addEventListener('click', () => searchPapers().catch(() => {}));
    queryInput.addEventListener('keydown', (e) => { if (e.key === 'Enter') go(); });
  </script>
</body>
</html>`
