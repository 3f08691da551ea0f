package kyc

import (
	"errors"
	"sync"

	"packmate/models"
)

// ErrUnknownSlot is returned when an image is routed to a slot outside the
// front/back/selfie taxonomy. The slot set is closed; an unknown slot is an
// integration bug, not something to drop silently.
var ErrUnknownSlot = errors.New("kyc: unknown image slot")

// Draft accumulates the KYC submission across screens: one image per slot,
// plus the identity-document metadata. Fields are written one at a time as
// the flow progresses and are only validated together at submission time,
// by the flow gating, never by the draft itself.
type Draft struct {
	mu      sync.Mutex
	images  map[models.ImageSlot]string
	country string
	docType models.DocumentType
}

// NewDraft creates an empty draft.
func NewDraft() *Draft {
	return &Draft{images: map[models.ImageSlot]string{}}
}

// AddImage stores a data-URI encoded image under the given slot. A later
// write to the same slot replaces the earlier one.
func (d *Draft) AddImage(slot models.ImageSlot, data string) error {
	if _, ok := slot.WireID(); !ok {
		return ErrUnknownSlot
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images[slot] = data
	return nil
}

// AddImageByWireID routes an image by its numeric image type id
// (front=3, back=7, selfie=2).
func (d *Draft) AddImageByWireID(id int, data string) error {
	slot, ok := models.SlotForWireID(id)
	if !ok {
		return ErrUnknownSlot
	}
	return d.AddImage(slot, data)
}

// UpdateIdentity sets country and document type together.
func (d *Draft) UpdateIdentity(country string, docType models.DocumentType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.country = country
	d.docType = docType
}

// SetCountry sets the country alone. The country screen commits before a
// document type is chosen, so the intermediate state (country set, type
// unset) is reachable and tolerated by BuildPayload.
func (d *Draft) SetCountry(country string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.country = country
}

// Image returns the image stored under slot, if any.
func (d *Draft) Image(slot models.ImageSlot) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.images[slot]
	return img, ok
}

// HasImage reports whether slot holds an image.
func (d *Draft) HasImage(slot models.ImageSlot) bool {
	_, ok := d.Image(slot)
	return ok
}

// DocumentType returns the selected document type, empty when unset.
func (d *Draft) DocumentType() models.DocumentType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.docType
}

// IdentityComplete reports whether both country and document type are set.
func (d *Draft) IdentityComplete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.country != "" && d.docType != ""
}

// BuildPayload assembles the document-verification request. Images appear in
// the fixed front, back, selfie order regardless of capture order, skipping
// empty slots. IDInfo is nil while either identity half is missing. The
// payload is built from whatever is present; completeness is the flow's job.
//
// The user id is read from the session at build time by the caller, not held
// redundantly in the draft.
func (d *Draft) BuildPayload(userID int64) models.DocumentVerificationRequest {
	d.mu.Lock()
	defer d.mu.Unlock()

	req := models.DocumentVerificationRequest{
		UserID: userID,
		Images: []models.VerificationImage{},
	}
	for _, slot := range []models.ImageSlot{models.SlotFront, models.SlotBack, models.SlotSelfie} {
		img, ok := d.images[slot]
		if !ok {
			continue
		}
		id, _ := slot.WireID()
		req.Images = append(req.Images, models.VerificationImage{ImageTypeID: id, Image: img})
	}
	if d.country != "" && d.docType != "" {
		req.IDInfo = &models.IDInfo{Country: d.country, IDType: string(d.docType)}
	}
	return req
}

// Reset clears every field back to the initial empty state. The flow calls
// this on terminal success or abandonment so a later attempt never sees
// stale captures.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images = map[models.ImageSlot]string{}
	d.country = ""
	d.docType = ""
}
