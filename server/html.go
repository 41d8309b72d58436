package server

// successPage is rendered to the browser once the callback has persisted the
// tokens. It carries no token material: retrieval happens over the poll
// endpoint only.
const successPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Authentication Successful &bull; Colino</title>
  <style>
    html, body { height: 100%; }
    body {
      margin: 0;
      font-family: Roboto, Helvetica, sans-serif;
      background: #313131;
      display: grid;
      place-items: center;
    }
    .card { text-align: center; }
    h1 {
      font-size: 2rem;
      margin: 12px 0;
      line-height: 1.2;
      color: #ffffff;
    }
    p.subtitle {
      font-size: 1.125rem;
      color: #d6d6d6;
    }
    .success {
      display: inline-flex;
      align-items: center;
      gap: 8px;
      background: rgba(34, 197, 94, 0.1);
      border: 2px solid rgba(34, 197, 94, 0.1);
      color: #22c55e;
      padding: 12px 14px;
      border-radius: 999px;
      font-weight: 600;
      margin: 16px 0 8px;
    }
  </style>
</head>
<body>
  <main class="card" role="main" aria-labelledby="title">
    <div class="success" aria-live="polite">Authentication successful</div>
    <h1 id="title">You're all set.</h1>
    <p class="subtitle">You can now close this tab and use <strong>Colino</strong> in your terminal.</p>
  </main>
</body>
</html>
`
