package controllers

import (
	"context"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/pkg/bind"
	"github.com/decorhub/decorhub/pkg/ctx"
)

type ContactStore interface {
	GetContactSettings(ctx context.Context) (models.ContactSettings, bool, error)
	UpsertContactSettings(ctx context.Context, cs models.ContactSettings) (models.ContactSettings, error)
}

type ContactController struct {
	store ContactStore
}

func NewContactController(store ContactStore) *ContactController {
	return &ContactController{store: store}
}

// Show GET /api/contact, GET /api/admin/contact
func (cc *ContactController) Show(c *ctx.Context) {
	cs, found, err := cc.store.GetContactSettings(c.Context())
	switch {
	case err != nil:
		c.Fail(err)
	case !found:
		c.NotFound("Contact settings have not been configured")
	default:
		c.OK(cs)
	}
}

// Update PUT /api/admin/contact creates the settings on first write.
func (cc *ContactController) Update(c *ctx.Context) {
	in, err := schema.DecodeContactSettings(bind.Body(c.R))
	if err != nil {
		c.Fail(err)
		return
	}
	cs, err := cc.store.UpsertContactSettings(c.Context(), in.ToModel())
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(cs)
}
