package keycard

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle стиль шрифта карточки
type FontStyle string

const (
	FontStyleRegular FontStyle = "regular"
	FontStyleBold    FontStyle = "bold"
	FontStyleMono    FontStyle = "mono"
)

// Размеры карточки
const (
	Width        = 800
	Height       = 450
	padding      = 48.0
	stripeHeight = 14.0
	keyBoxHeight = 120.0
	cornerRadius = 18.0
)

// Размеры шрифтов
const (
	titleFontSize    = 30.0
	subtitleFontSize = 20.0
	keyFontSize      = 72.0
	detailFontSize   = 22.0
)

// Цветовая схема
var (
	bgColor       = color.RGBA{245, 246, 248, 255}
	textColor     = color.RGBA{40, 44, 52, 255}
	mutedColor    = color.RGBA{110, 115, 120, 220}
	keyBoxColor   = color.RGBA{255, 255, 255, 255}
	keyBorder     = color.RGBA{210, 214, 220, 255}
	activeColor   = color.RGBA{133, 193, 85, 255}
	inactiveColor = color.RGBA{158, 158, 158, 255}
)

var fontData = map[FontStyle][]byte{
	FontStyleRegular: goregular.TTF,
	FontStyleBold:    gobold.TTF,
	FontStyleMono:    gomono.TTF,
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont выставляет шрифт указанного стиля, basicfont как запасной вариант
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsMu.Lock()
	parsed, ok := cachedFonts[style]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData[style])
		if err != nil {
			parsed = nil
		}
		cachedFonts[style] = parsed
	}
	fontsMu.Unlock()

	if parsed != nil {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// Render рисует PNG-карточку ключа регистрации для раздачи классу
func Render(k *model.RegistrationKey, now time.Time) ([]byte, error) {
	dc := gg.NewContext(Width, Height)
	dc.SetColor(bgColor)
	dc.Clear()

	drawStatusStripe(dc, k.IsValid(now))
	drawHeader(dc)
	drawKey(dc, k.Key)
	drawDetails(dc, k)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode key card: %w", err)
	}
	return buf.Bytes(), nil
}

func drawStatusStripe(dc *gg.Context, valid bool) {
	if valid {
		dc.SetColor(activeColor)
	} else {
		dc.SetColor(inactiveColor)
	}
	dc.DrawRectangle(0, 0, Width, stripeHeight)
	dc.Fill()
}

func drawHeader(dc *gg.Context) {
	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored("Where We Go", padding, padding+titleFontSize, 0, 0)

	loadFont(dc, subtitleFontSize, FontStyleRegular)
	dc.SetColor(mutedColor)
	dc.DrawStringAnchored("Registration key / 注册码", padding, padding+titleFontSize+subtitleFontSize+12, 0, 0)
}

func drawKey(dc *gg.Context, key string) {
	top := float64(Height)/2 - keyBoxHeight/2 + 10
	dc.SetColor(keyBoxColor)
	dc.DrawRoundedRectangle(padding, top, Width-2*padding, keyBoxHeight, cornerRadius)
	dc.FillPreserve()
	dc.SetColor(keyBorder)
	dc.SetLineWidth(2)
	dc.Stroke()

	loadFont(dc, keyFontSize, FontStyleMono)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(key, Width/2, top+keyBoxHeight/2, 0.5, 0.35)
}

func drawDetails(dc *gg.Context, k *model.RegistrationKey) {
	loadFont(dc, detailFontSize, FontStyleRegular)
	dc.SetColor(textColor)

	class := fmt.Sprintf("Class %d · %d", k.ClassNumber, k.GradYear)
	if k.Curriculum != "" {
		class += " · " + k.Curriculum
	}
	dc.DrawStringAnchored(class, padding, Height-padding-detailFontSize-10, 0, 0)

	dc.SetColor(mutedColor)
	expires := "Valid until " + k.ExpirationDate.UTC().Format("2006-01-02 15:04 MST")
	dc.DrawStringAnchored(expires, padding, Height-padding, 0, 0)
}
