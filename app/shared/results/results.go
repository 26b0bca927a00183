package results

// OperationResult carries the typed outcome of a service operation. Exactly one
// of Success or Failure is set for a completed operation; infrastructure errors
// are returned separately as Go errors and leave both fields nil.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult builds a success outcome.
func SuccessResult[S any, F any](payload S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &payload}
}

// FailureResult builds a handled business failure outcome.
func FailureResult[S any, F any](payload F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &payload}
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }
