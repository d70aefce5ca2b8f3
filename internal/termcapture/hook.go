// Package termcapture intercepts the Socket.IO/Engine.IO frames carrying a
// browser-hosted SSH terminal's byte stream, decodes the several wire
// framings the transport can fall back through, and feeds a virtual
// terminal emulator so the core can wait on prompts and extract command
// output.
package termcapture

// jsHook is installed once via the page handle's addInitScript primitive,
// before any navigation to the terminal page. It wraps WebSocket,
// XMLHttpRequest and fetch so every socket.io frame — regardless of which
// transport Engine.IO ends up negotiating — lands in window.__termCapture.
//
// Keep this in lockstep with pullScript and ParseMessage: all three encode
// the same framing knowledge, one in JS and two in Go.
const jsHook = `
(() => {
  if (window.__termCapture) return;
  window.__termCapture = { messages: [], debug: [], wsDisconnected: false };

  const push = (msg) => { window.__termCapture.messages.push(msg); };
  const dbg = (msg) => {
    window.__termCapture.debug.push(msg);
    if (window.__termCapture.debug.length > 200) window.__termCapture.debug.shift();
  };

  const OrigWebSocket = window.WebSocket;
  window.WebSocket = function (url, protocols) {
    const ws = protocols ? new OrigWebSocket(url, protocols) : new OrigWebSocket(url);
    if (String(url).indexOf('socket.io') !== -1) {
      ws.addEventListener('message', (ev) => {
        const data = ev.data;
        if (typeof data === 'string') {
          push(data);
        } else if (data instanceof ArrayBuffer) {
          push(new TextDecoder('utf-8').decode(data));
        } else if (data instanceof Blob) {
          data.text().then(push);
        }
      });
      ws.addEventListener('close', () => {
        window.__termCapture.wsDisconnected = true;
        dbg('ws close');
      });
      ws.addEventListener('error', () => {
        window.__termCapture.wsDisconnected = true;
        dbg('ws error');
      });
    }
    return ws;
  };
  window.WebSocket.prototype = OrigWebSocket.prototype;

  const OrigOpen = XMLHttpRequest.prototype.open;
  const OrigSend = XMLHttpRequest.prototype.send;
  XMLHttpRequest.prototype.open = function (method, url) {
    this.__tcURL = url;
    return OrigOpen.apply(this, arguments);
  };
  XMLHttpRequest.prototype.send = function () {
    if (String(this.__tcURL || '').indexOf('socket.io') !== -1) {
      this.addEventListener('load', () => {
        if (this.responseText && this.responseText !== 'ok') push(this.responseText);
      });
    }
    return OrigSend.apply(this, arguments);
  };

  const OrigFetch = window.fetch;
  window.fetch = function (input, init) {
    const url = typeof input === 'string' ? input : (input && input.url) || '';
    const p = OrigFetch.apply(this, arguments);
    if (url.indexOf('socket.io') !== -1) {
      p.then((resp) => {
        resp.clone().text().then(push).catch(() => {});
      }).catch(() => {});
    }
    return p;
  };
})();
`

// pullScript splices and returns everything accumulated since the last
// pull, leaving the ring/flag state reset for messages and debug but
// preserving wsDisconnected (only an explicit Reset clears that).
const pullScript = `
(() => {
  const tc = window.__termCapture || { messages: [], debug: [], wsDisconnected: false };
  const messages = tc.messages.splice(0, tc.messages.length);
  const debug = tc.debug.splice(0, tc.debug.length);
  return { messages, debug, wsDisconnected: tc.wsDisconnected };
})();
`

// resetScript fully clears the capture state, including wsDisconnected.
const resetScript = `
(() => {
  window.__termCapture = { messages: [], debug: [], wsDisconnected: false };
})();
`

// JSHook returns the init-script source to install before navigating to the
// terminal page.
func JSHook() string { return jsHook }
