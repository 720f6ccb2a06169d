package controllers

import (
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/pkg/bind"
	"github.com/decorhub/decorhub/pkg/ctx"
)

type InquiryController struct {
	inquiries *services.InquiryService
}

func NewInquiryController(inquiries *services.InquiryService) *InquiryController {
	return &InquiryController{inquiries: inquiries}
}

// Store POST /api/inquiries
func (ic *InquiryController) Store(c *ctx.Context) {
	in, err := schema.DecodeInquiry(bind.Body(c.R))
	if err != nil {
		c.Fail(err)
		return
	}
	inq, err := ic.inquiries.Submit(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(inq)
}

// Index GET /api/admin/inquiries
func (ic *InquiryController) Index(c *ctx.Context) {
	list, err := ic.inquiries.List(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(list)
}
