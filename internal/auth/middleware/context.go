package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/courseloop/courseloop-lms/internal/quiz"
	"github.com/courseloop/courseloop-lms/internal/rbac"
)

type ctxKey string

const ctxKeySub ctxKey = "sub"

// RoleReviewer is the explicit capability that may act on any attempt.
// The all-zero subject maps to it as the escape hatch for flows that
// never authenticated.
const RoleReviewer = "reviewer"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ActorFromContext builds the engine-facing caller identity. The
// subject must be a UUID; reviewers (and the all-zero subject) get the
// SystemReviewer capability.
func ActorFromContext(ctx context.Context) (quiz.Actor, bool) {
	sub := SubjectFromContext(ctx)
	id, err := uuid.Parse(sub)
	if err != nil {
		return quiz.Actor{}, false
	}
	role := rbac.RoleFromContext(ctx)
	return quiz.Actor{
		LearnerID:      id,
		SystemReviewer: role == RoleReviewer || id == uuid.Nil,
	}, true
}
