package executor

import (
	"context"
	"regexp"
	"strings"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
)

var upiIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z][a-zA-Z0-9]{1,63}$`)

// ValidUPIID reports whether id looks like name@handle.
func ValidUPIID(id string) bool {
	return upiIDPattern.MatchString(id)
}

// UPIIntentExecutor accepts an intent for a well-formed VPA. Funds move outside the
// platform, so success here only means the intent can be raised.
type UPIIntentExecutor struct{}

func NewUPIIntentExecutor() *UPIIntentExecutor {
	return &UPIIntentExecutor{}
}

func (e *UPIIntentExecutor) Method() model.PaymentMethod {
	return model.PaymentMethodUPIIntent
}

func (e *UPIIntentExecutor) Execute(ctx context.Context, payment *model.Payment) (provider.ExecutionResult, error) {
	upiID := strings.TrimSpace(payment.MetadataString(model.MetadataUPIID))
	if !ValidUPIID(upiID) {
		return provider.Declined("invalid upi_id"), nil
	}
	return provider.Succeeded("UPI_" + upiID), nil
}
