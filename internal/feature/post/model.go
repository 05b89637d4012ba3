package post

type listQ struct {
	AuthorID  uint `form:"authorId"`
	HasAuthor bool `form:"hasAuthor"` // 作者未被删
	Offset    int  `form:"offset,default=0"`
	Limit     int  `form:"limit,default=20"`
}

type listOut[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

type createIn struct {
	Title    string `json:"title"    binding:"required,max=191"`
	Body     string `json:"body"`
	AuthorID uint   `json:"authorId" binding:"required"`
}
