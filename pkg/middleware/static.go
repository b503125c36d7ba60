package middleware

import (
	"os"
	"path"
	"path/filepath"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
)

// Static is an interceptor that serves the regular file under dir named by
// the request path, whatever the method. Requests for anything else,
// including directories, are passed on. The path is cleaned as if rooted, so it cannot escape dir.
func Static(dir string) common.Interceptor {
	return func(req *common.Request, res *common.Response, next common.Next) error {
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+req.Path)))
		info, err := os.Stat(name)
		if err != nil || !info.Mode().IsRegular() {
			next()
			return nil
		}
		return res.SendFile(name)
	}
}
