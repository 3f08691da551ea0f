package models

// ImageSlot names a capture slot in the KYC draft. Slots carry fixed numeric
// wire ids that the document-verification endpoint expects; the ids only
// appear in the submission payload, never in client state.
type ImageSlot string

const (
	SlotFront  ImageSlot = "front"
	SlotBack   ImageSlot = "back"
	SlotSelfie ImageSlot = "selfie"
)

const (
	wireIDFront  = 3
	wireIDBack   = 7
	wireIDSelfie = 2
)

// WireID returns the numeric image type id for the slot.
func (s ImageSlot) WireID() (int, bool) {
	switch s {
	case SlotFront:
		return wireIDFront, true
	case SlotBack:
		return wireIDBack, true
	case SlotSelfie:
		return wireIDSelfie, true
	default:
		return 0, false
	}
}

// SlotForWireID maps a numeric image type id back to its slot.
func SlotForWireID(id int) (ImageSlot, bool) {
	switch id {
	case wireIDFront:
		return SlotFront, true
	case wireIDBack:
		return SlotBack, true
	case wireIDSelfie:
		return SlotSelfie, true
	default:
		return "", false
	}
}

// DocumentType is the identity document variant selected by the user.
type DocumentType string

const (
	DocumentPassport       DocumentType = "PASSPORT"
	DocumentIdentityCard   DocumentType = "IDENTITY_CARD"
	DocumentDrivingLicence DocumentType = "DRIVING_LICENCE"
)

// Valid reports whether d is one of the supported document types.
func (d DocumentType) Valid() bool {
	switch d {
	case DocumentPassport, DocumentIdentityCard, DocumentDrivingLicence:
		return true
	default:
		return false
	}
}

// VerificationImage is one image entry in the document-verification payload.
type VerificationImage struct {
	ImageTypeID int    `json:"image_type_id"`
	Image       string `json:"image"`
}

// IDInfo pairs the issuing country with the document type. It is omitted
// from the payload entirely while either half is still unset.
type IDInfo struct {
	Country string `json:"country"`
	IDType  string `json:"id_type"`
}

// DocumentVerificationRequest is the body of POST /smile-id/document-verification.
type DocumentVerificationRequest struct {
	UserID int64               `json:"userId"`
	Images []VerificationImage `json:"images"`
	IDInfo *IDInfo             `json:"idInfo"`
}
