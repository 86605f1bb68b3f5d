package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"cybercafe/internal/service"
	"cybercafe/internal/validation"
)

// StudentHandler handles student registration, editing and detail pages
type StudentHandler struct {
	studentService *service.StudentService
	paymentService *service.PaymentService
	usageService   *service.UsageService
	renderer       *Renderer
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(
	studentService *service.StudentService,
	paymentService *service.PaymentService,
	usageService *service.UsageService,
	renderer *Renderer,
) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		paymentService: paymentService,
		usageService:   usageService,
		renderer:       renderer,
	}
}

func studentURL(idNumber string) string {
	return "/students/" + url.PathEscape(idNumber)
}

// List shows every student with this month's balance
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.ListWithBalances(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to list students", err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "students.tmpl", StudentsViewData{
		Page:     h.renderer.Page(r, "Students"),
		Students: students,
	})
}

// New renders an empty student form
func (h *StudentHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "student_form.tmpl", StudentFormViewData{
		Page:      h.renderer.Page(r, "Add student"),
		Action:    "/students",
		CancelURL: "/",
	})
}

// Create registers a student and returns to the home page
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	form := studentForm(r)
	if _, err := h.studentService.Register(r.Context(), form); err != nil {
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			form.Normalize()
			h.renderer.Render(w, http.StatusUnprocessableEntity, "student_form.tmpl", StudentFormViewData{
				Page:      h.renderer.Page(r, "Add student"),
				Action:    "/students",
				CancelURL: "/",
				Form:      form,
				Errors:    fieldErrs,
			})
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to register student", err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Detail shows a student with their payments and sessions
func (h *StudentHandler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.studentService.Detail(r.Context(), r.PathValue("idNumber"))
	if err != nil {
		respondWithLookupError(w, err, ErrStudentNotFound, "failed to load student")
		return
	}

	page := h.renderer.Page(r, detail.Student.FullName())
	now := h.usageService.Now()
	plan := h.usageService.Plan()

	sessions := make([]*SessionView, 0, len(detail.Sessions))
	for i := range detail.Sessions {
		sessions = append(sessions, newSessionView(&detail.Sessions[i], now, plan))
	}

	h.renderer.Render(w, http.StatusOK, "student_detail.tmpl", StudentDetailViewData{
		Page:       page,
		Student:    detail.Student,
		Payments:   detail.Payments,
		Sessions:   sessions,
		AmountPaid: detail.AmountPaid,
		Balance:    detail.Balance,
		Actions:    Actions{IDNumber: detail.Student.IDNumber, CSRFToken: page.CSRFToken},
	})
}

// Edit renders the student form filled with current values
func (h *StudentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	student, err := h.studentService.Get(r.Context(), r.PathValue("idNumber"))
	if err != nil {
		respondWithLookupError(w, err, ErrStudentNotFound, "failed to load student")
		return
	}

	h.renderer.Render(w, http.StatusOK, "student_form.tmpl", StudentFormViewData{
		Page:      h.renderer.Page(r, "Edit student"),
		Action:    studentURL(student.IDNumber) + "/edit",
		CancelURL: studentURL(student.IDNumber),
		Form: validation.StudentForm{
			FirstName:   student.FirstName,
			LastName:    student.LastName,
			IDNumber:    student.IDNumber,
			PhoneNumber: student.PhoneNumber,
		},
	})
}

// Update saves the edited student and returns to its detail page
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	idNumber := r.PathValue("idNumber")
	form := studentForm(r)
	student, err := h.studentService.Update(r.Context(), idNumber, form)
	if err != nil {
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			form.Normalize()
			h.renderer.Render(w, http.StatusUnprocessableEntity, "student_form.tmpl", StudentFormViewData{
				Page:      h.renderer.Page(r, "Edit student"),
				Action:    studentURL(idNumber) + "/edit",
				CancelURL: studentURL(idNumber),
				Form:      form,
				Errors:    fieldErrs,
			})
			return
		}
		respondWithLookupError(w, err, ErrStudentNotFound, "failed to update student")
		return
	}

	http.Redirect(w, r, studentURL(student.IDNumber), http.StatusSeeOther)
}

// Delete removes a student with their payments and sessions
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.Delete(r.Context(), r.PathValue("idNumber")); err != nil {
		respondWithLookupError(w, err, ErrStudentNotFound, "failed to delete student")
		return
	}

	http.Redirect(w, r, "/students", http.StatusSeeOther)
}

// Payments lists one student's payments
func (h *StudentHandler) Payments(w http.ResponseWriter, r *http.Request) {
	student, payments, err := h.paymentService.StudentPayments(r.Context(), r.PathValue("idNumber"))
	if err != nil {
		respondWithLookupError(w, err, ErrStudentNotFound, "failed to load student payments")
		return
	}

	h.renderer.Render(w, http.StatusOK, "student_payments.tmpl", StudentPaymentsViewData{
		Page:     h.renderer.Page(r, "Payments of "+student.FullName()),
		Student:  student,
		Payments: payments,
	})
}
