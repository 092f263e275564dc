// Package stat implements the ranking statistics used to threshold and
// prune single-detector triggers.
//
// Every statistic is a pure function of per-trigger columns, exposed
// behind the Ranking interface together with a cheap proxy used for
// pre-filtering. The proxy is an upper bound on the precise value, so
// filtering on the proxy at a given threshold never removes a trigger
// the precise statistic would have kept.
package stat
