package labkit

import (
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
)

// OpenFileOrURL consumes a local path or an http(s) URL and returns its full
// contents.
func OpenFileOrURL(input string) ([]byte, error) {
	var f io.ReadCloser

	if strings.HasPrefix(input, "http") {
		resp, err := http.Get(input)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		f = resp.Body
	} else {
		file, err := os.Open(ExpandHome(input))
		if err != nil {
			return nil, err
		}
		defer file.Close()

		f = file
	}

	return ioutil.ReadAll(f)
}
