// Package model はドメインモデルを定義する。
package model

import "time"

// Grade はアセスメントの総合評価を表す。
type Grade string

const (
	// GradeA は最上位評価。
	GradeA Grade = "A"
	// GradeB は上位評価。
	GradeB Grade = "B"
	// GradeC は標準評価。
	GradeC Grade = "C"
	// GradeD は基準未達評価。
	GradeD Grade = "D"
)

// ValidGrades は受け付ける評価の固定セット。
var ValidGrades = []Grade{GradeA, GradeB, GradeC, GradeD}

// IsValidGrade は評価が固定セットに含まれるかを返す。
func IsValidGrade(g string) bool {
	for _, v := range ValidGrades {
		if string(v) == g {
			return true
		}
	}
	return false
}

// AssessmentScores はアセスメントの5項目スコアを表す。
// 各項目は0〜20点、合計は0〜100点。
type AssessmentScores struct {
	Operations     int
	Certifications int
	Equipment      int
	Insurance      int
	Reputation     int
}

// Total は5項目の合計スコアを返す。
func (s AssessmentScores) Total() int {
	return s.Operations + s.Certifications + s.Equipment + s.Insurance + s.Reputation
}

// Assessment は事業者アセスメントの提出結果を表す。
// 提出ごとに1行が作成され、以後変更されない（追記専用）。
type Assessment struct {
	ID                 string
	ProfileID          string
	Answers            map[string]string // 自由形式の設問回答
	Scores             AssessmentScores
	TotalScore         int
	Grade              Grade
	Eligible           bool
	EligibilityReasons []string
	IntendedPlan       string // プランスラッグ
	CreatedAt          time.Time
}

// usStates は米国50州の州コード。アセスメント入力の検証に使用する。
var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true,
	"CO": true, "CT": true, "DE": true, "FL": true, "GA": true,
	"HI": true, "ID": true, "IL": true, "IN": true, "IA": true,
	"KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true,
	"MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true,
	"VA": true, "WA": true, "WV": true, "WI": true, "WY": true,
}

// IsValidUSState は州コードが米国50州のいずれかであるかを返す。
func IsValidUSState(code string) bool {
	return usStates[code]
}
