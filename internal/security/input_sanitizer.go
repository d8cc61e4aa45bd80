// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService は利用者が入力する自由記述テキスト
// （査定回答、会社情報、管理メモなど）をサニタイズし、
// 保存データへのHTML混入やXSSのリスクを除去する。
// bluemondayライブラリの許可リストベースのポリシーを使用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizerService は入力テキストのサニタイズ機能のインターフェースを定義する。
// 査定回答・サービスリクエストのメモ・プロフィール項目の保存前に使用される。
type InputSanitizerService interface {
	// SanitizeText はテキストから全てのHTMLタグを除去したプレーンテキストを返す。
	// script, iframe, styleタグおよびon*イベント属性を含む全てのマークアップが除去される。
	// 前後の空白はトリムされる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string

	// SanitizeNote は管理メモ用のサニタイズを行う。
	// 改行構造を保つ最小限のタグ（p, br, ul, ol, li, strong, em）のみを通過させ、
	// それ以外のマークアップは除去される。
	SanitizeNote(raw string) string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	textPolicy *bluemonday.Policy
	notePolicy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// テキスト用には全タグを除去するStrictPolicyを、
// メモ用には段落・リスト・強調のみを許可するカスタムポリシーを構築する。
func NewInputSanitizer() *inputSanitizer {
	note := bluemonday.NewPolicy()
	note.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	return &inputSanitizer{
		textPolicy: bluemonday.StrictPolicy(),
		notePolicy: note,
	}
}

// SanitizeText はテキストから全てのHTMLタグを除去したプレーンテキストを返す。
func (s *inputSanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(s.textPolicy.Sanitize(raw))
}

// SanitizeNote は管理メモ用のサニタイズを行う。
func (s *inputSanitizer) SanitizeNote(raw string) string {
	return strings.TrimSpace(s.notePolicy.Sanitize(raw))
}

// インターフェース実装のコンパイル時チェック
var _ InputSanitizerService = (*inputSanitizer)(nil)
