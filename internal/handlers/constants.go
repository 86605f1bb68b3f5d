package handlers

const (
	ErrInvalidFormData     = "Invalid form data"
	ErrInternalServerError = "Internal server error"
	ErrStudentNotFound     = "Student not found"
	ErrPaymentNotFound     = "Payment not found"
	ErrTooManyAttempts     = "Too many login attempts, try again later"
	ErrInvalidCSRFToken    = "Invalid CSRF token"

	// LoginFailedMessage is shown for any failed sign-in
	LoginFailedMessage = "Login unsuccessful"
	// NoneFullyPaidMessage is shown when nobody has covered this month's fee
	NoneFullyPaidMessage = "No student has fully paid this month."
)
