package actions

import "context"

// Either holds exactly one of a Left (expected failure) or a Right (success).
type Either[L, R any] struct {
	left   L
	right  R
	isLeft bool
}

func Left[L, R any](l L) Either[L, R] {
	return Either[L, R]{left: l, isLeft: true}
}

func Right[L, R any](r R) Either[L, R] {
	return Either[L, R]{right: r}
}

func (e Either[L, R]) IsLeft() bool  { return e.isLeft }
func (e Either[L, R]) IsRight() bool { return !e.isLeft }

// GetLeft returns the left value and whether e is a Left.
func (e Either[L, R]) GetLeft() (L, bool) {
	return e.left, e.isLeft
}

// GetRight returns the right value and whether e is a Right.
func (e Either[L, R]) GetRight() (R, bool) {
	return e.right, !e.isLeft
}

// TaskEither is a deferred action. Nothing happens until it is invoked and
// every invocation performs the remote calls again. A non nil error is a
// fatal failure; expected failures are returned as a Left.
type TaskEither[L, R any] func(ctx context.Context) (Either[L, R], error)

// Chain runs next with the Right value of first. Lefts and fatal errors of
// first are returned without invoking next.
func Chain[L, A, B any](first TaskEither[L, A], next func(A) TaskEither[L, B]) TaskEither[L, B] {
	return func(ctx context.Context) (Either[L, B], error) {
		res, err := first(ctx)
		if err != nil {
			return Either[L, B]{}, err
		}
		if l, ok := res.GetLeft(); ok {
			return Left[L, B](l), nil
		}
		a, _ := res.GetRight()
		return next(a)(ctx)
	}
}

// Map converts the Right value of t.
func Map[L, A, B any](t TaskEither[L, A], f func(A) B) TaskEither[L, B] {
	return func(ctx context.Context) (Either[L, B], error) {
		res, err := t(ctx)
		if err != nil {
			return Either[L, B]{}, err
		}
		if l, ok := res.GetLeft(); ok {
			return Left[L, B](l), nil
		}
		a, _ := res.GetRight()
		return Right[L](f(a)), nil
	}
}

// MapLeft converts the left type of t, typically to widen a concrete
// failure to the Failure interface.
func MapLeft[L1, L2, R any](t TaskEither[L1, R], f func(L1) L2) TaskEither[L2, R] {
	return func(ctx context.Context) (Either[L2, R], error) {
		res, err := t(ctx)
		if err != nil {
			return Either[L2, R]{}, err
		}
		if l, ok := res.GetLeft(); ok {
			return Left[L2, R](f(l)), nil
		}
		r, _ := res.GetRight()
		return Right[L2](r), nil
	}
}
