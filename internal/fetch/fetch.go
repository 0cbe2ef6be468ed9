// Package fetch downloads asset bundles before a run.
package fetch

import (
	"context"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	getter "github.com/hashicorp/go-getter"
)

const ErrTypeFetch = "fetch"

// Fetch downloads src into the directory dst. src is any address go-getter
// understands: a local path, an HTTP archive, git::, s3:: and so on.
// Local directories are linked rather than copied.
func Fetch(ctx context.Context, src, dst string) error {
	pwd, err := os.Getwd()
	if err != nil {
		return errors.New("resolving working directory failed").
			WithType(ErrTypeFetch).
			Wrap(err)
	}

	logs.WithTag("src", src).
		WithTag("dst", dst).
		Info("fetching assets")

	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeAny,
	}
	if err := client.Get(); err != nil {
		return errors.New("fetching assets failed").
			WithType(ErrTypeFetch).
			WithTag("src", src).
			WithTag("dst", dst).
			Wrap(err)
	}

	logs.WithTag("dst", dst).Info("assets fetched")
	return nil
}
