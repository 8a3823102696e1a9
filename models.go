package main

import (
	"omsz_portal/internal/models"
	"omsz_portal/internal/records"
	"omsz_portal/internal/stats"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullName" validate:"required,max=128"`
	Rank     string `json:"rank" validate:"required"`
}

type serviceRequest struct {
	ServiceStart string `json:"serviceStart" validate:"required"`
	ServiceEnd   string `json:"serviceEnd" validate:"required"`
}

type calculatorRequest struct {
	Services []string `json:"services"`
}

type reportRequest struct {
	ColleagueName   string   `json:"colleagueName" validate:"max=128"`
	ColleagueRank   string   `json:"colleagueRank" validate:"max=128"`
	CaseDescription string   `json:"caseDescription"`
	Ticket          *float64 `json:"ticket" validate:"omitempty,gte=0"`
	ImageLink       string   `json:"imageLink" validate:"omitempty,url,max=2048"`
	Services        []string `json:"services"`
}

type postRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// userView is a User as sent to the browser. Password is only filled
// when an admin explicitly asks for it.
type userView struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Password string      `json:"password,omitempty"`
	FullName string      `json:"fullName"`
	Rank     string      `json:"rank"`
	Role     models.Role `json:"role"`
}

func newUserView(u models.User) userView {
	return userView{ID: u.ID, Username: u.Username, FullName: u.FullName, Rank: u.Rank, Role: u.Role}
}

type quoteResponse struct {
	records.Quote
	Description string `json:"description"`
	Formatted   string `json:"formatted"`
}

type reportListResponse struct {
	stats.ReportSummary
	TotalFormatted string             `json:"totalFormatted"`
	Cases          []stats.CaseTotals `json:"cases,omitempty"`
}

type weeklyRow struct {
	stats.UserTotals
	TicketFormatted string `json:"ticketFormatted"`
}

type weeklyLiveResponse struct {
	Visible bool               `json:"visible"`
	Window  string             `json:"window"`
	Users   []weeklyRow        `json:"users,omitempty"`
	Cases   []stats.CaseTotals `json:"cases,omitempty"`
}
