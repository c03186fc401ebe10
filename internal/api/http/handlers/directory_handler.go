package handlers

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-admin/internal/api/dto"
	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/service"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

const maxAvatarBytes = 5 << 20

// DirectoryHandler exposes doctor, patient and pharmacy management.
type DirectoryHandler struct {
	registry *service.Registry
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(registry *service.Registry) *DirectoryHandler {
	return &DirectoryHandler{registry: registry}
}

// withID resolves the :id param and the caller's services.
func (h *DirectoryHandler) withID(c *fiber.Ctx) (string, *service.Services, error) {
	id, err := requireParam(c, "id")
	if err != nil {
		return "", nil, err
	}
	svc, err := servicesFor(c, h.registry)
	return id, svc, err
}

// ListDoctors handles GET /api/doctors.
func (h *DirectoryHandler) ListDoctors(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Doctors.List(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}

// GetDoctor handles GET /api/doctors/:id.
func (h *DirectoryHandler) GetDoctor(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	doc, err := svc.Doctors.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, doc)
}

// DoctorAvailability handles GET /api/doctors/:id/availability.
func (h *DirectoryHandler) DoctorAvailability(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	slots, err := svc.Doctors.Availability(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, slots)
}

// VerifyDoctor handles PATCH /api/doctors/:id/verify.
func (h *DirectoryHandler) VerifyDoctor(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	doc, err := svc.Doctors.Verify(c.UserContext(), id, req.Verified)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, doc)
}

// DoctorStatus handles PATCH /api/doctors/:id/status.
func (h *DirectoryHandler) DoctorStatus(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	var req dto.UserStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	doc, err := svc.Doctors.SetStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, doc)
}

// DoctorAvatar handles POST /api/doctors/:id/avatar (multipart field "avatar").
func (h *DirectoryHandler) DoctorAvatar(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	file, err := formFile(c, "avatar", maxAvatarBytes)
	if err != nil {
		return err
	}
	doc, err := svc.Doctors.UploadAvatar(c.UserContext(), id, file)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, doc)
}

// DeleteDoctor handles DELETE /api/doctors/:id.
func (h *DirectoryHandler) DeleteDoctor(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	if err := svc.Doctors.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListPatients handles GET /api/patients.
func (h *DirectoryHandler) ListPatients(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Patients.List(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}

// GetPatient handles GET /api/patients/:id.
func (h *DirectoryHandler) GetPatient(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	p, err := svc.Patients.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, p)
}

// PatientStatus handles PATCH /api/patients/:id/status.
func (h *DirectoryHandler) PatientStatus(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	var req dto.UserStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	p, err := svc.Patients.SetStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, p)
}

// DeletePatient handles DELETE /api/patients/:id.
func (h *DirectoryHandler) DeletePatient(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	if err := svc.Patients.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListPharmacies handles GET /api/pharmacies.
func (h *DirectoryHandler) ListPharmacies(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Pharmacies.List(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}

// GetPharmacy handles GET /api/pharmacies/:id.
func (h *DirectoryHandler) GetPharmacy(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	p, err := svc.Pharmacies.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, p)
}

// PharmacyProducts handles GET /api/pharmacies/:id/products.
func (h *DirectoryHandler) PharmacyProducts(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	page, err := svc.Pharmacies.Products(c.UserContext(), id, listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}

// ApprovePharmacy handles PATCH /api/pharmacies/:id/approve.
func (h *DirectoryHandler) ApprovePharmacy(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	p, err := svc.Pharmacies.Approve(c.UserContext(), id, req.Approved)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, p)
}

// DeletePharmacy handles DELETE /api/pharmacies/:id.
func (h *DirectoryHandler) DeletePharmacy(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	if err := svc.Pharmacies.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteProduct handles DELETE /api/pharmacies/:id/products/:productId.
func (h *DirectoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, svc, err := h.withID(c)
	if err != nil {
		return err
	}
	productID, err := requireParam(c, "productId")
	if err != nil {
		return err
	}
	if err := svc.Pharmacies.DeleteProduct(c.UserContext(), id, productID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// formFile reads a multipart file into memory so the upload can be resent
// after a credential refresh.
func formFile(c *fiber.Ctx, field string, limit int64) (apiclient.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return apiclient.File{}, apperrors.NewValidationError(field+" file required", nil)
	}
	if header.Size > limit {
		return apiclient.File{}, apperrors.NewValidationError(field+" file too large", map[string]any{"limit": limit})
	}
	f, err := header.Open()
	if err != nil {
		return apiclient.File{}, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return apiclient.File{}, err
	}
	return apiclient.File{
		Field:       field,
		Name:        header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Content:     &buf,
	}, nil
}
