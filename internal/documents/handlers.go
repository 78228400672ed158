package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func barangayOf(r *http.Request) string {
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	return brgy
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// ---- document types ----

type typeInput struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Fee            decimal.Decimal   `json:"fee"`
	ValidityDays   *int              `json:"validity_days"`
	RequiredFields map[string]string `json:"required_fields"`
	IsActive       *bool             `json:"is_active"`
}

func (in typeInput) applyTo(t *DocumentType) error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	if in.Fee.IsNegative() {
		return errors.New("fee cannot be negative")
	}
	raw, err := json.Marshal(in.RequiredFields)
	if err != nil {
		return err
	}
	t.Name = strings.TrimSpace(in.Name)
	t.Description = in.Description
	t.Fee = in.Fee
	t.ValidityDays = in.ValidityDays
	t.RequiredFields = datatypes.JSON(raw)
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	return nil
}

func ListTypes(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Where("barangay_id = ?", barangayOf(r))
	if r.URL.Query().Get("active") == "true" {
		query = query.Where("is_active = ?", true)
	}
	var types []DocumentType
	if err := query.Order("name ASC").Find(&types).Error; err != nil {
		http.Error(w, "Failed to fetch document types: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, types)
}

func CreateType(w http.ResponseWriter, r *http.Request) {
	var in typeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()
	t := DocumentType{ID: uuid.New(), BarangayID: barangayOf(r), IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := in.applyTo(&t); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionDocTypeCreate, map[string]interface{}{
			"document_type_id": t.ID.String(),
			"name":             t.Name,
		}))
	})
	if err != nil {
		log.WithError(err).Error("[CreateType] insert failed")
		http.Error(w, "Failed to create document type", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, t)
}

func UpdateType(w http.ResponseWriter, r *http.Request) {
	var t DocumentType
	if err := db.DB.First(&t, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), barangayOf(r)).Error; err != nil {
		http.Error(w, "Document type not found", http.StatusNotFound)
		return
	}
	var in typeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := in.applyTo(&t); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t.UpdatedAt = time.Now().UTC()

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionDocTypeUpdate, map[string]interface{}{
			"document_type_id": t.ID.String(),
		}))
	})
	if err != nil {
		http.Error(w, "Failed to update document type", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// typeInUse counts the issued documents and requests of the barangay that
// reference the type.
func typeInUse(tx *gorm.DB, id, barangayID string) (int64, error) {
	var issued, requested int64
	if err := tx.Model(&IssuedDocument{}).
		Where("document_type_id = ? AND barangay_id = ?", id, barangayID).
		Count(&issued).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&DocRequest{}).
		Where("document_type_id = ? AND barangay_id = ?", id, barangayID).
		Count(&requested).Error; err != nil {
		return 0, err
	}
	return issued + requested, nil
}

// DeleteType deactivates a type that issued documents or requests still
// reference, otherwise deletes it.
func DeleteType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	brgy := barangayOf(r)
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		used, err := typeInUse(tx, id, brgy)
		if err != nil {
			return err
		}
		var res *gorm.DB
		if used > 0 {
			res = tx.Model(&DocumentType{}).Where("id = ? AND barangay_id = ?", id, brgy).Update("is_active", false)
		} else {
			res = tx.Where("id = ? AND barangay_id = ?", id, brgy).Delete(&DocumentType{})
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionDocTypeDelete, map[string]interface{}{
			"document_type_id": id,
			"deactivated":      used > 0,
		}))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Document type not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete document type", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- issued documents ----

func ListIssued(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r, 25, 200)
	query := db.DB.Model(&IssuedDocument{}).Where("barangay_id = ?", barangayOf(r))
	if rid := r.URL.Query().Get("resident_id"); rid != "" {
		query = query.Where("resident_id = ?", rid)
	}
	if ps := r.URL.Query().Get("payment_status"); ps != "" {
		query = query.Where("payment_status = ?", ps)
	}
	if num := strings.TrimSpace(r.URL.Query().Get("number")); num != "" {
		query = query.Where("document_number ILIKE ?", "%"+num+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Failed to fetch documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var docs []IssuedDocument
	if err := query.Order("issued_at DESC").Limit(page.Size).Offset(page.Offset()).Find(&docs).Error; err != nil {
		http.Error(w, "Failed to fetch documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	for i := range docs {
		docs[i].StatusColor = StatusColor(docs[i].PaymentStatus)
	}
	utils.WriteJSON(w, http.StatusOK, utils.Paged[IssuedDocument]{
		Items: docs, Total: total, Page: page.Number, PageSize: page.Size,
	})
}

func GetIssued(w http.ResponseWriter, r *http.Request) {
	var doc IssuedDocument
	if err := db.DB.First(&doc, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), barangayOf(r)).Error; err != nil {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	doc.StatusColor = StatusColor(doc.PaymentStatus)
	utils.WriteJSON(w, http.StatusOK, doc)
}

type issueRequest struct {
	DocumentTypeID uuid.UUID              `json:"document_type_id"`
	ResidentID     uuid.UUID              `json:"resident_id"`
	Purpose        string                 `json:"purpose"`
	FormData       map[string]interface{} `json:"form_data"`
	Waive          bool                   `json:"waive"`
}

func IssueDocument(w http.ResponseWriter, r *http.Request) {
	var in issueRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.DocumentTypeID == uuid.Nil || in.ResidentID == uuid.Nil {
		http.Error(w, "document_type_id and resident_id are required", http.StatusBadRequest)
		return
	}

	audit := activity.EntryFromRequest(r, activity.ActionDocumentIssue, nil)
	doc, err := Issue(r.Context(), db.DB, IssueInput{
		BarangayID:     barangayOf(r),
		DocumentTypeID: in.DocumentTypeID,
		ResidentID:     in.ResidentID,
		Purpose:        in.Purpose,
		FormData:       in.FormData,
		IssuedBy:       audit.UserID,
		Waive:          in.Waive,
	}, audit)
	if err != nil {
		writeIssueError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, doc)
}

func writeIssueError(w http.ResponseWriter, err error) {
	var missing *MissingFieldsError
	switch {
	case errors.As(err, &missing):
		utils.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":          ErrMissingRequiredFields.Error(),
			"missing_fields": missing.Fields,
		})
	case errors.Is(err, ErrResidentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrTypeInactive):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.WithError(err).Error("[documents] issue failed")
		http.Error(w, "Failed to issue document", http.StatusInternalServerError)
	}
}

type paymentRequest struct {
	Status    string `json:"payment_status"`
	Reference string `json:"payment_reference"`
}

func UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var in paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validPayment(in.Status) {
		http.Error(w, "payment_status must be unpaid, paid or waived", http.StatusBadRequest)
		return
	}

	var doc IssuedDocument
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doc, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), barangayOf(r)).Error; err != nil {
			return err
		}
		if err := SetPayment(tx, &doc, in.Status, in.Reference); err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionDocumentPayment, map[string]interface{}{
			"document_id":    doc.ID.String(),
			"payment_status": doc.PaymentStatus,
		}))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update payment", http.StatusInternalServerError)
		return
	}
	doc.StatusColor = StatusColor(doc.PaymentStatus)
	utils.WriteJSON(w, http.StatusOK, doc)
}

// ---- requests ----

func ListRequests(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r, 25, 200)
	query := db.DB.Model(&DocRequest{}).Where("barangay_id = ?", barangayOf(r))
	if st := r.URL.Query().Get("status"); st != "" {
		query = query.Where("status = ?", st)
	}
	if rid := r.URL.Query().Get("resident_id"); rid != "" {
		query = query.Where("resident_id = ?", rid)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Failed to fetch requests: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var reqs []DocRequest
	if err := query.Order("created_at DESC").Limit(page.Size).Offset(page.Offset()).Find(&reqs).Error; err != nil {
		http.Error(w, "Failed to fetch requests: "+err.Error(), http.StatusInternalServerError)
		return
	}
	for i := range reqs {
		reqs[i].StatusColor = StatusColor(reqs[i].Status)
	}
	utils.WriteJSON(w, http.StatusOK, utils.Paged[DocRequest]{
		Items: reqs, Total: total, Page: page.Number, PageSize: page.Size,
	})
}

type createRequestBody struct {
	DocumentTypeID uuid.UUID              `json:"document_type_id"`
	ResidentID     uuid.UUID              `json:"resident_id"`
	Purpose        string                 `json:"purpose"`
	FormData       map[string]interface{} `json:"form_data"`
}

func CreateRequest(w http.ResponseWriter, r *http.Request) {
	var in createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.DocumentTypeID == uuid.Nil || in.ResidentID == uuid.Nil {
		http.Error(w, "document_type_id and resident_id are required", http.StatusBadRequest)
		return
	}

	brgy := barangayOf(r)
	userID, _ := utils.GetUserIDFromContext(r.Context())
	now := time.Now().UTC()
	req := DocRequest{
		ID:             uuid.New(),
		BarangayID:     brgy,
		ResidentID:     in.ResidentID,
		DocumentTypeID: in.DocumentTypeID,
		Purpose:        in.Purpose,
		Status:         StatusRequest,
		FormData:       in.FormData,
		RequestedBy:    userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var dt DocumentType
		if err := tx.First(&dt, "id = ? AND barangay_id = ?", in.DocumentTypeID, brgy).Error; err != nil {
			return err
		}
		if !dt.IsActive {
			return ErrTypeInactive
		}
		if err := residentInBarangay(tx, in.ResidentID, brgy); err != nil {
			return err
		}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionRequestCreate, map[string]interface{}{
			"request_id":    req.ID.String(),
			"document_type": dt.Name,
		}))
	})
	if err != nil {
		writeIssueError(w, err)
		return
	}
	req.StatusColor = StatusColor(req.Status)
	utils.WriteJSON(w, http.StatusCreated, req)
}

type transitionBody struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

func TransitionRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in transitionBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := Transition(r.Context(), db.DB, barangayOf(r), id, in.Status, in.Remarks,
		activity.EntryFromRequest(r, activity.ActionRequestTransition, nil))
	if err != nil {
		writeIssueError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, req)
}
