package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Banner", "banner"},
		{"spaces", "Logo for Coffee Shop", "logo-for-coffee-shop"},
		{"symbols", "Icon Pack!!! (v2)", "icon-pack-v2"},
		{"leading and trailing junk", "  --Cover Art--  ", "cover-art"},
		{"digits kept", "Preset 2024", "preset-2024"},
		{"non latin only", "Обложка альбома", "product"},
		{"empty", "", "product"},
		{"long name truncated", strings.Repeat("a", 200), strings.Repeat("a", 64)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slugify(tc.in))
		})
	}
}

func TestUniquePermalink_FirstFree(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()

	f.products.On("PermalinkExists", ctx, "banner").Return(false, nil)

	permalink, err := f.svc.uniquePermalink(ctx, "Banner")

	assert.NoError(t, err)
	assert.Equal(t, "banner", permalink)
}

func TestUniquePermalink_NumericSuffixes(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()

	f.products.On("PermalinkExists", ctx, "banner").Return(true, nil)
	f.products.On("PermalinkExists", ctx, "banner-2").Return(true, nil)
	f.products.On("PermalinkExists", ctx, "banner-3").Return(false, nil)

	permalink, err := f.svc.uniquePermalink(ctx, "Banner")

	assert.NoError(t, err)
	assert.Equal(t, "banner-3", permalink)
}

func TestUniquePermalink_RandomFallback(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()

	// Первые восемь кандидатов заняты, девятый получает случайный суффикс.
	f.products.On("PermalinkExists", ctx, "banner").Return(true, nil)
	for i := 2; i <= 9; i++ {
		f.products.On("PermalinkExists", ctx, "banner-"+string(rune('0'+i))).Return(true, nil)
	}
	f.products.On("PermalinkExists", ctx, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "banner-") && len(p) == len("banner-")+8
	})).Return(false, nil)

	permalink, err := f.svc.uniquePermalink(ctx, "Banner")

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(permalink, "banner-"))
}

func TestUniquePermalink_Exhausted(t *testing.T) {
	f := newDeliveryFixture()
	ctx := context.Background()

	f.products.On("PermalinkExists", ctx, mock.AnythingOfType("string")).Return(true, nil)

	_, err := f.svc.uniquePermalink(ctx, "Banner")

	assert.True(t, apperror.IsConflict(err))
}
