package domain

// Account verification states written alongside staff documents.
const (
	AccountVerifyPending  = "PENDING"
	AccountVerifyVerified = "VERIFIED"
)

// StaffRecord is a platform staff member, keyed by principal UID.
type StaffRecord struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	FCMToken      *string `json:"fcm_token,omitempty"`
	AccountVerify *string `json:"account_verify,omitempty"`
}
