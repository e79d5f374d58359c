package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// bootstrap loads the host runtime and the page shim ahead of the page's
// own scripts.
var bootstrap = []byte(`<script src="/wails/ipc.js"></script>` +
	`<script src="/wails/runtime.js"></script>` +
	`<script src="` + ShimPath + `"></script>`)

// maxHTML bounds how much of an HTML response is buffered for rewriting.
const maxHTML = 32 << 20

func injectScripts(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTML))
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("gateway: read html: %w", err)
	}
	data = insertBootstrap(data)
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))
	resp.Header.Set("Content-Length", strconv.Itoa(len(data)))
	resp.Header.Del("Content-Encoding")
	return nil
}

// insertBootstrap places the bootstrap scripts right after the opening head
// tag, or at the start of the document when there is none.
func insertBootstrap(doc []byte) []byte {
	if bytes.Contains(doc, []byte(ShimPath)) {
		return doc
	}
	lower := bytes.ToLower(doc)
	at := openTagEnd(lower, "head")
	if at < 0 {
		at = openTagEnd(lower, "html")
	}
	if at < 0 {
		at = 0
	}
	out := make([]byte, 0, len(doc)+len(bootstrap))
	out = append(out, doc[:at]...)
	out = append(out, bootstrap...)
	return append(out, doc[at:]...)
}

// openTagEnd returns the offset just past the first <name> or <name ...>
// tag in the lower-cased document, or -1.
func openTagEnd(lower []byte, name string) int {
	tag := []byte("<" + name)
	for off := 0; ; {
		i := bytes.Index(lower[off:], tag)
		if i < 0 {
			return -1
		}
		i += off
		next := i + len(tag)
		if next < len(lower) {
			switch lower[next] {
			case '>', ' ', '\t', '\n', '\r':
				if j := bytes.IndexByte(lower[next:], '>'); j >= 0 {
					return next + j + 1
				}
				return -1
			}
		}
		off = next
	}
}
