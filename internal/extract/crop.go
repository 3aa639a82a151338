package extract

import (
	"context"

	"github.com/spherical/textgrab/internal/crop"
	"github.com/spherical/textgrab/internal/domain"
)

// ToggleCrop starts a crop session over the displayed image or, when one is
// active, applies it. Applying runs the cropped area through the image path
// and returns the new session. selection, when set, replaces the current
// selection first.
func (c *Controller) ToggleCrop(ctx context.Context, selection *domain.Region) (CropState, *Session, error) {
	c.mu.Lock()

	p := c.state.payload
	if p == nil || p.Kind != domain.PayloadImage {
		state := c.cropStateLocked()
		c.mu.Unlock()
		state.Message = domain.MsgCropNeedsImage
		return state, nil, nil
	}

	if c.state.crop == nil {
		cs, err := crop.Attach(p)
		if err != nil {
			// An undecodable image shows no preview, so there is nothing to crop.
			state := c.cropStateLocked()
			c.mu.Unlock()
			c.logger.Warn().Err(err).Str("name", p.Name).Msg("Crop overlay unavailable")
			state.Message = domain.MsgCropNeedsImage
			return state, nil, nil
		}
		if selection != nil {
			cs.SetSelection(*selection)
		}
		c.state.crop = cs
		state := c.cropStateLocked()
		c.mu.Unlock()
		c.logger.Debug().Interface("selection", state.Selection).Msg("Crop session started")
		return state, nil, nil
	}

	cs := c.state.crop
	if selection != nil {
		cs.SetSelection(*selection)
	}
	region := cs.Selection()
	data, err := cs.CroppedPNG()
	c.destroyCropLocked()

	if err != nil {
		state := c.cropStateLocked()
		c.mu.Unlock()
		c.logger.Warn().Err(err).Interface("selection", region).Msg("Crop produced no image")
		return state, nil, nil
	}

	cropped := domain.NewPayload(domain.PayloadImage, "image/png", p.Name+"#crop", data)
	sess := c.startLocked(ctx, cropped)
	state := c.cropStateLocked()
	c.mu.Unlock()

	state.SessionID = sess.ID
	go c.run(sess)
	return state, sess, nil
}

// SetSelection moves the active crop selection. The stored selection is
// clamped to the image.
func (c *Controller) SetSelection(r domain.Region) (CropState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.crop == nil {
		return c.cropStateLocked(), ErrNoCrop
	}
	c.state.crop.SetSelection(r)
	return c.cropStateLocked(), nil
}

// CancelCrop discards the active crop session without extracting.
func (c *Controller) CancelCrop() (CropState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.crop == nil {
		return c.cropStateLocked(), ErrNoCrop
	}
	c.destroyCropLocked()
	return c.cropStateLocked(), nil
}

// Crop returns the current crop state.
func (c *Controller) Crop() CropState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cropStateLocked()
}

func (c *Controller) cropStateLocked() CropState {
	state := CropState{Label: c.cropLabelLocked()}
	if cs := c.state.crop; cs != nil {
		sel := cs.Selection()
		bounds := cs.Bounds()
		state.Active = true
		state.Selection = &sel
		state.Bounds = &bounds
	}
	return state
}

func (c *Controller) cropLabelLocked() string {
	if c.state.crop != nil {
		return domain.LabelExtractRegion
	}
	return domain.LabelSelectRegion
}

func (c *Controller) destroyCropLocked() {
	if c.state.crop != nil {
		c.state.crop.Destroy()
		c.state.crop = nil
	}
}
