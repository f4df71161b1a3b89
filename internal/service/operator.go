package service

import "context"

type operatorKey struct{}

// WithOperator returns a copy of ctx carrying the ID of the user on whose
// behalf an attribute is written.
func WithOperator(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, operatorKey{}, userID)
}

// OperatorFrom returns the user ID attached by WithOperator.
func OperatorFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(operatorKey{}).(int)
	return id, ok
}

// annotateOperator records the requesting user, if known, in event metadata.
func annotateOperator(ctx context.Context, meta map[string]any) {
	if id, ok := OperatorFrom(ctx); ok {
		meta["user_id"] = id
	}
}
