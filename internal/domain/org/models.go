package org

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNameRequired = errors.New("name is required")
	ErrNegativePay  = errors.New("base salary must not be negative")
)

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Position struct {
	ID         string    `json:"id"`
	NameID     string    `json:"nameId"`
	NameEN     string    `json:"nameEn"`
	Department string    `json:"department"`
	BaseSalary float64   `json:"baseSalary"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Bank struct {
	ID        string    `json:"id"`
	Name      string    `json:"bankName"`
	Code      string    `json:"bankCode"`
	Logo      string    `json:"bankLogo"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d *Department) Normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	if d.Name == "" {
		return ErrNameRequired
	}
	return nil
}

func (p *Position) Normalize() error {
	p.NameID = strings.TrimSpace(p.NameID)
	p.NameEN = strings.TrimSpace(p.NameEN)
	p.Department = strings.TrimSpace(p.Department)
	if p.NameID == "" {
		return ErrNameRequired
	}
	if p.BaseSalary < 0 {
		return ErrNegativePay
	}
	return nil
}

func (b *Bank) Normalize() error {
	b.Name = strings.TrimSpace(b.Name)
	b.Code = strings.ToUpper(strings.TrimSpace(b.Code))
	b.Logo = strings.TrimSpace(b.Logo)
	if b.Name == "" {
		return ErrNameRequired
	}
	return nil
}
