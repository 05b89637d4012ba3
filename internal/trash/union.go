package trash

import "gorm.io/gorm"

// union renders live UNION trash as a derived table named after the live table. Both
// branches drop ordering and pagination; the original ORDER BY, OFFSET and LIMIT apply
// to the combined result only.
//
//	SELECT * FROM (SELECT * FROM posts WHERE ... UNION SELECT * FROM posts_trash AS posts WHERE ...) AS posts LIMIT 5 OFFSET 5
func (q *Query[T, P]) union(sess *gorm.DB) *gorm.DB {
	inner := q.clone()
	inner.orders, inner.limit, inner.offset = nil, -1, -1
	inner.withTrashed = false

	live := inner.target.OriginalTableName()
	trashed := inner.clone()
	trashed.target = inner.target.Retarget(inner.target.TrashedTableName())

	// SQLite rejects parenthesised compound members, so the branches stay bare.
	combined := sess.Raw("? UNION ?", inner.branch(sess, ""), trashed.branch(sess, live))

	outer := sess.Model(P(new(T))).Table("(?) AS "+quote(sess, live), combined)
	outer.Statement.Table = live
	return q.paginate(outer)
}
