// Package model はドメインモデルを定義する。
package model

import "time"

// RequestPriority はサービスリクエストの優先度を表す。
type RequestPriority string

const (
	// PriorityLow は低優先度。
	PriorityLow RequestPriority = "Low"
	// PriorityMedium は中優先度。
	PriorityMedium RequestPriority = "Medium"
	// PriorityHigh は高優先度。
	PriorityHigh RequestPriority = "High"
	// PriorityUrgent は緊急優先度。
	PriorityUrgent RequestPriority = "Urgent"
)

// IsValidRequestPriority は優先度が定義済みのいずれかであるかを返す。
func IsValidRequestPriority(p string) bool {
	switch RequestPriority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RequestStatus はサービスリクエストの進行状態を表す。
type RequestStatus string

const (
	// RequestStatusOpen は未着手状態。
	RequestStatusOpen RequestStatus = "Open"
	// RequestStatusInProgress は対応中状態。
	RequestStatusInProgress RequestStatus = "In Progress"
	// RequestStatusResolved は解決済み状態。
	RequestStatusResolved RequestStatus = "Resolved"
	// RequestStatusClosed はクローズ状態。
	RequestStatusClosed RequestStatus = "Closed"
)

// IsValidRequestStatus は進行状態が定義済みのいずれかであるかを返す。
func IsValidRequestStatus(s string) bool {
	switch RequestStatus(s) {
	case RequestStatusOpen, RequestStatusInProgress, RequestStatusResolved, RequestStatusClosed:
		return true
	}
	return false
}

// ServiceRequest は会員からのサービスリクエストを表す。
type ServiceRequest struct {
	ID        string
	MemberID  string
	Type      string
	Priority  RequestPriority
	Status    RequestStatus
	Assignee  string
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServiceRequestNote はサービスリクエストのタイムラインに残すメモを表す。
// 本文は保存前にサニタイズされる。
type ServiceRequestNote struct {
	ID        string
	RequestID string
	Author    string
	Body      string
	CreatedAt time.Time
}
