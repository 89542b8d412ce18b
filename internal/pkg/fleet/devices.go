package fleet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/samber/lo"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

var ErrDuplicateDevice = errors.New("duplicate device id")

// DeviceID derives a device id from the display name when none is given.
func DeviceID(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	base := slug.Make(name)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Expand clones base into count devices. A count of one returns base as is.
func Expand(base model.Device, count int) []model.Device {
	if count <= 1 {
		return []model.Device{base}
	}
	width := len(fmt.Sprint(count))
	if width < 2 {
		width = 2
	}
	return lo.Times(count, func(i int) model.Device {
		n := fmt.Sprintf("%0*d", width, i+1)
		return model.Device{
			ID:       base.ID + "-" + n,
			Name:     base.Name + " " + n,
			Type:     base.Type,
			Location: base.Location,
		}
	})
}

func checkUnique(devices []model.Device) error {
	dups := lo.FindDuplicatesBy(devices, func(d model.Device) string {
		return d.ID
	})
	if len(dups) > 0 {
		ids := lo.Map(dups, func(d model.Device, _ int) string { return d.ID })
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, strings.Join(ids, ", "))
	}
	return nil
}
