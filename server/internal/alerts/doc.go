// Package alerts evaluates site-level threshold rules against published
// reports and delivers webhooks to Teams, Slack or generic HTTP targets.
//
// A rule names a column (an indicator column, or award / award_old) and a
// condition. Every site of every accepted report is evaluated; an alert is
// keyed by rule, scope and site, fires at most once per cooldown and
// resolves when the condition stops holding or the site leaves the scope.
package alerts
