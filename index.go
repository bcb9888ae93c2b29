package main

import "net/http"

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Particle Relay</title>
<meta name="description" content="In-memory room relay for shared particle and motion state">
<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{--bg:#12121a;--card:#1d1d2a;--border:#303045;--fg:#e8e8f0;--muted:#7a7a92;--radius:6px}
body{font-family:system-ui,-apple-system,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;background:var(--bg);color:var(--fg);min-height:100vh;display:flex;align-items:center;justify-content:center}
main{background:var(--card);border:1px solid var(--border);border-radius:var(--radius);padding:2.5rem;max-width:32rem}
h1{font-size:1.4rem;margin-bottom:.75rem}
p{color:var(--muted);line-height:1.5;margin-bottom:1rem}
code{display:block;background:var(--bg);border:1px solid var(--border);border-radius:var(--radius);padding:.75rem;font-size:.85rem;overflow-x:auto}
</style>
</head>
<body>
<main>
<h1>Particle Relay</h1>
<p>Room-scoped presence relay. Joined peers exchange particle and motion
snapshots in real time; nothing is stored and rooms vanish when the last
member leaves.</p>
<code>wss://host/ws?room=&lt;roomId&gt;&amp;user=&lt;userId&gt;</code>
</main>
</body>
</html>`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}
