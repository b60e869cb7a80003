package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CodePair maps an error code onto transport codes.
type CodePair struct {
	HTTPStatus int
	GRPCCode   codes.Code
}

var codeMapping = map[string]CodePair{
	ErrInternal:        {500, codes.Internal},
	ErrNotFound:        {404, codes.NotFound},
	ErrInvalidArgument: {400, codes.InvalidArgument},
	ErrUnauthenticated: {401, codes.Unauthenticated},
	ErrUnauthorized:    {403, codes.PermissionDenied},
	ErrConflict:        {409, codes.AlreadyExists},
	ErrTimeout:         {504, codes.DeadlineExceeded},
	ErrNotImplemented:  {501, codes.Unimplemented},

	ErrValidation:         {400, codes.InvalidArgument},
	ErrInvalidState:       {409, codes.FailedPrecondition},
	ErrLimitExceeded:      {422, codes.FailedPrecondition},
	ErrExecutionFailure:   {502, codes.Aborted},
	ErrDeliveryFailure:    {502, codes.Unavailable},
	ErrLedgerWriteFailure: {503, codes.Unavailable},
	ErrDuplicateReference: {409, codes.AlreadyExists},
	ErrAlreadyVerified:    {409, codes.AlreadyExists},
	ErrAlreadyDelivered:   {409, codes.AlreadyExists},
}

// GetCodeMapping returns the HTTP status and gRPC code for an error code.
// Unknown codes map to 500 / Internal.
func GetCodeMapping(code string) (int, codes.Code) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return 500, codes.Internal
}

// CodeOf extracts the AppError code from err, or ErrInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}

// ToGRPCError converts err into a gRPC status error.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	_, grpcCode := GetCodeMapping(CodeOf(err))
	return status.Error(grpcCode, err.Error())
}
