package seeders

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/validate"
)

func init() {
	Register("admin_user", SeedAdmin)
	Register("contact_settings", SeedContactSettings)
}

// SeedAdmin creates ADMIN_USERNAME (default "admin") with ADMIN_PASSWORD
// unless that account already exists.
func SeedAdmin(ctx context.Context, store *repositories.Store, out io.Writer) error {
	in := schema.UserInput{
		Username: config.Get("ADMIN_USERNAME", "admin"),
		Password: config.Get("ADMIN_PASSWORD", ""),
		Role:     models.RoleAdmin,
	}
	_, found, err := store.FindUserByUsername(ctx, in.Username)
	if err != nil {
		return err
	}
	if found {
		fmt.Fprintf(out, "(%s exists) ", in.Username)
		return nil
	}
	if in.Password == "" {
		return errors.New("ADMIN_PASSWORD is not set")
	}
	in.Normalize()
	if err := validate.Check(&in); err != nil {
		return err
	}
	_, err = services.NewAuthService(store).CreateUser(ctx, in)
	return err
}

// SeedContactSettings writes the CONTACT_* values once, so the public
// contact endpoint has something to show before the admin edits it. Nothing
// is written when the values are unset or would not pass validation; the
// endpoint then keeps answering 404 until an admin saves the settings.
func SeedContactSettings(ctx context.Context, store *repositories.Store, out io.Writer) error {
	_, found, err := store.GetContactSettings(ctx)
	if err != nil {
		return err
	}
	if found {
		fmt.Fprint(out, "(already configured) ")
		return nil
	}

	in := schema.ContactSettingsInput{
		Phone:   config.Get("CONTACT_PHONE", ""),
		Email:   config.Get("CONTACT_EMAIL", ""),
		Address: config.Get("CONTACT_ADDRESS", ""),
		MapURL:  config.Get("CONTACT_MAP_URL", ""),
	}
	if in.Phone == "" && in.Email == "" && in.Address == "" && in.MapURL == "" {
		fmt.Fprint(out, "(CONTACT_* not set, skipped) ")
		return nil
	}
	in.Normalize()
	if err := validate.Check(&in); err != nil {
		fmt.Fprintf(out, "(skipped: %v) ", err)
		return nil
	}
	_, err = store.UpsertContactSettings(ctx, in.ToModel())
	return err
}
