package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/beauty-admin/internal/domain/contact"
)

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Contacts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range contacts {
			encodeContact(e, &contacts[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	var c contact.Contact
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "phone":
			c.Phone, err = d.Str()
		case "company":
			c.Company, err = d.Str()
		case "notes":
			c.Notes, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.Contacts.Create(r.Context(), &c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeContact(e, created)
	})
}

func (h *Handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.Contacts.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func encodeContact(e *jx.Encoder, c *contact.Contact) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("email")
	e.Str(c.Email)
	e.FieldStart("phone")
	e.Str(c.Phone)
	e.FieldStart("company")
	e.Str(c.Company)
	e.FieldStart("notes")
	e.Str(c.Notes)
	e.FieldStart("created_at")
	encodeTime(e, c.CreatedAt)
	e.ObjEnd()
}
