package server

// indexHTML is a self-contained demo page: it subscribes to /events
// with an EventSource and appends each incoming message to a list.
// Useful for eyeballing a running hub without any tooling.
const indexHTML = `<!DOCTYPE html>
<html>
    <head>
        <title>pulse demo</title>
        <meta charset="utf-8" />
    </head>
    <body>
        <h1>pulse demo</h1>
        <p>Incoming events:</p>
        <ul id="list"></ul>
        <script>
let source = new EventSource("/events");
source.onmessage = event => {
    let elem = document.createElement("li");
    elem.innerText = event.data;

    document.getElementById("list").appendChild(elem);
};
        </script>
    </body>
</html>`
