package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cybercafe/internal/service"
	"cybercafe/internal/validation"
)

// PaymentHandler handles recording and listing payments
type PaymentHandler struct {
	paymentService *service.PaymentService
	studentService *service.StudentService
	renderer       *Renderer
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService, studentService *service.StudentService, renderer *Renderer) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		studentService: studentService,
		renderer:       renderer,
	}
}

// List shows every payment and the students fully paid this month
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to list payments", err)
		return
	}
	fullyPaid, err := h.paymentService.FullyPaidStudents(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to list fully paid students", err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "payments.tmpl", PaymentsViewData{
		Page:          h.renderer.Page(r, "Payments"),
		Payments:      payments,
		FullyPaid:     fullyPaid,
		NoneFullyPaid: NoneFullyPaidMessage,
	})
}

func (h *PaymentHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, form validation.PaymentForm, errs validation.Errors) {
	students, err := h.studentService.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to list students", err)
		return
	}

	h.renderer.Render(w, status, "payment_form.tmpl", PaymentFormViewData{
		Page:     h.renderer.Page(r, "Add payment"),
		Students: students,
		Form:     form,
		Errors:   errs,
	})
}

// New renders the payment form, preselecting ?id_number when given
func (h *PaymentHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, validation.PaymentForm{IDNumber: r.URL.Query().Get("id_number")}, nil)
}

// Create records a payment and returns to the payments page
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	form := paymentForm(r)
	if _, err := h.paymentService.RecordPayment(r.Context(), form); err != nil {
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, form, fieldErrs)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to record payment", err)
		return
	}

	http.Redirect(w, r, "/payments", http.StatusSeeOther)
}

// Delete removes a payment
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrPaymentNotFound, "", err)
		return
	}

	if err := h.paymentService.Delete(r.Context(), id); err != nil {
		respondWithLookupError(w, err, ErrPaymentNotFound, "failed to delete payment")
		return
	}

	http.Redirect(w, r, "/payments", http.StatusSeeOther)
}
