package models

// User is an account holder; it owns clients and invoices.
type User struct {
	Base
	Name        string  `gorm:"not null" json:"name"`
	Email       string  `gorm:"uniqueIndex;not null" json:"email"`
	Password    string  `gorm:"not null" json:"-"`
	CompanyName string  `json:"companyName"`
	Phone       string  `json:"phone"`
	Address     Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
}

// BusinessName is the name shown on invoices and outgoing email.
func (u *User) BusinessName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	if u.Name != "" {
		return u.Name
	}
	return "InvoiceFlow"
}
