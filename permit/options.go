package permit

import "github.com/go-logr/logr"

type Option func(*Source)

func WithLogr(l logr.Logger) Option {
	return func(s *Source) { s.log = l }
}
