package service_test

import (
	"testing"

	"github.com/storeconnect/crm-messaging/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	got := service.RenderTemplate(
		"Hi {first_name} {last_name}, check out {product}!",
		map[string]string{"first_name": "Alice", "last_name": "Smith", "product": "Shoes"},
	)
	want := "Hi Alice Smith, check out Shoes!"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderTemplateKeepsUnknownTokens(t *testing.T) {
	got := service.RenderTemplate("Hi {first_name} from {shop}", map[string]string{"first_name": "Bob"})
	want := "Hi Bob from {shop}"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
