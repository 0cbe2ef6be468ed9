package asset

import (
	stderrors "errors"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ErrTypeEdit is the error type of a failed scoped edit.
const ErrTypeEdit = "asset_edit"

// Edit checks out the prefab at path, runs fn on it, then saves and unloads
// it on every exit path: success, error or panic. Nothing is saved when the
// load itself fails.
func Edit(s Store, path string, fn func(p *Prefab) error) (err error) {
	p, err := s.Load(path)
	if err != nil {
		return errors.New("opening asset failed").
			WithType(ErrTypeEdit).
			WithTag("path", path).
			Wrap(err)
	}

	defer func() {
		r := recover()

		if serr := s.Save(path, p); serr != nil {
			serr = errors.New("saving asset failed").
				WithType(ErrTypeEdit).
				WithTag("path", path).
				Wrap(serr)
			err = stderrors.Join(err, serr)
		}
		s.Unload(path)

		if r != nil {
			panic(r)
		}
	}()

	if err := fn(p); err != nil {
		return errors.New("editing asset failed").
			WithType(ErrTypeEdit).
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
