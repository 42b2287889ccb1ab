package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/authornet/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a payload for struct-tag violations, duplicate node ids
// and links whose endpoints do not name a node. Nil links fail with
// [errors.ErrCodeMissingLinks]; an empty list is valid.
func Validate(g Graph) error {
	if g.Links == nil {
		return errors.New(errors.ErrCodeMissingLinks, "graph is missing links")
	}
	if err := structValidator().Struct(g); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "%s", describe(err))
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if err := errors.ValidateID(n.ID); err != nil {
			return err
		}
		if _, dup := ids[n.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateNode, "duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}

	for i, l := range g.Links {
		if _, ok := ids[l.Source]; !ok {
			return errors.New(errors.ErrCodeUnknownNode, "link %d: unknown source %q", i, l.Source)
		}
		if _, ok := ids[l.Target]; !ok {
			return errors.New(errors.ErrCodeUnknownNode, "link %d: unknown target %q", i, l.Target)
		}
	}
	return nil
}

// describe flattens validator field errors into one readable line.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid graph"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
