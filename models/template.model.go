package models

import "gorm.io/gorm"

// CertificateTemplate is an uploaded certificate background plus the
// placement box for the recipient's name. Rendering itself is delegated
// to the external renderer service.
type CertificateTemplate struct {
	gorm.Model
	Name      string `gorm:"size:255;not null" json:"name"`
	FilePath  string `gorm:"size:500;not null" json:"filePath"`
	FileURL   string `gorm:"size:500" json:"fileUrl"`
	CreatedBy uint   `gorm:"not null;index" json:"createdBy"`

	// Name placement on the rendered page
	NameX        float64 `gorm:"default:0" json:"nameX"`
	NameY        float64 `gorm:"default:0" json:"nameY"`
	NameFontSize int     `gorm:"default:32" json:"nameFontSize"`
	NameColor    string  `gorm:"size:16;default:'#000000'" json:"nameColor"`

	IsDeleted bool `gorm:"default:false" json:"isDeleted"`
}

func (CertificateTemplate) TableName() string {
	return "certificate_templates"
}
