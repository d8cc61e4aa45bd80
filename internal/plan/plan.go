// Package plan は会員プランの正規化と特典テーブルを提供する。
//
// プランスラッグはURLパス・キャッシュ・チェックアウトのメタデータなど
// 複数の経路から入ってくるため、未知の値は必ずデフォルトプラン
// （founding-member）に正規化する。正規化後のスラッグは特典テーブルの
// キーとして常に解決できることを保証する。
package plan

import "strings"

// プランスラッグの定義済み値。
const (
	// SlugFoundingMember は創設会員プラン。正規化のデフォルト。
	SlugFoundingMember = "founding-member"
	// SlugGold はゴールドプラン。
	SlugGold = "gold"
	// SlugSilver はシルバープラン。
	SlugSilver = "silver"
	// SlugBronze はブロンズプラン。
	SlugBronze = "bronze"
)

// Plan はプランの表示情報を表す。
type Plan struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Tier     string   `json:"tier"`
	Benefits []string `json:"benefits"`
}

// plans はプランスラッグをキーとした特典の固定テーブル。
var plans = map[string]Plan{
	SlugFoundingMember: {
		Slug: SlugFoundingMember,
		Name: "Founding Member",
		Tier: "Founding Member",
		Benefits: []string{
			"Lifetime founding rate lock",
			"Founding Member badge and directory placement",
			"Priority verified-lead routing",
			"Annual certification audit included",
			"Direct line to member support",
		},
	},
	SlugGold: {
		Slug: SlugGold,
		Name: "Gold",
		Tier: "Gold",
		Benefits: []string{
			"Gold badge and directory placement",
			"Verified-lead routing",
			"Annual certification audit included",
		},
	},
	SlugSilver: {
		Slug: SlugSilver,
		Name: "Silver",
		Tier: "Silver",
		Benefits: []string{
			"Silver badge and directory listing",
			"Standard lead routing",
		},
	},
	SlugBronze: {
		Slug: SlugBronze,
		Name: "Bronze",
		Tier: "Bronze",
		Benefits: []string{
			"Bronze badge and directory listing",
		},
	},
}

// Normalize はプランスラッグを定義済みの値に正規化する。
// 前後の空白と大文字小文字を吸収し、未知または空の値は
// founding-member に正規化する。エラーは返さない。
func Normalize(slug string) string {
	s := strings.ToLower(strings.TrimSpace(slug))
	if _, ok := plans[s]; ok {
		return s
	}
	return SlugFoundingMember
}

// Lookup は正規化済みスラッグに対応するプランを返す。
// 未知の値はNormalizeを経由するため、常に定義済みのプランが返る。
func Lookup(slug string) Plan {
	return plans[Normalize(slug)]
}

// Slugs は定義済みプランスラッグの一覧を返す。
func Slugs() []string {
	return []string{SlugFoundingMember, SlugGold, SlugSilver, SlugBronze}
}
