package api

import (
	"github.com/dmitrijs2005/gridconsole/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error builds a status error carrying reason as an ErrorInfo detail.
func Error(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	if withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: common.ErrorDomain}); err == nil {
		st = withInfo
	}
	return st.Err()
}

// ReasonOf extracts the status code and machine-readable reason of err.
// Statuses without an ErrorInfo detail fall back to their message.
// Non-status errors report codes.Unknown and an empty reason.
func ReasonOf(err error) (codes.Code, string) {
	if err == nil {
		return codes.OK, ""
	}
	st, ok := status.FromError(err)
	if !ok {
		return codes.Unknown, ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return st.Code(), info.GetReason()
		}
	}
	return st.Code(), st.Message()
}
