package murzfeed

import (
	"murzlite/models"
	"murzlite/query"
)

// fields wraps a document's field map. Missing fields read as zero values.
type fields map[string]query.Value

// ToPost normalizes a post document. It never fails.
func ToPost(d query.Document) models.Post {
	f := fields(d.Fields)
	return models.Post{
		ID:                     d.ID(),
		PostID:                 f["postId"].String(),
		Title:                  f["title"].String(),
		Content:                f["content"].String(),
		Username:               f["username"].String(),
		UID:                    f["uid"].String(),
		CreatedAt:              f["createdAt"].Time(),
		LatestCommentCreatedAt: f["latestCommentCreatedAt"].Time(),
		Published:              f["published"].Bool(),
		IsDelete:               f["isDelete"].Bool(),
		IsNewsletter:           f["isNewsletter"].Bool(),
		IsAnonymous:            f["isAnonymous"].Bool(),
		PostCategory:           f["postCategory"].Strings(),
		PawCount:               f["pawCount"].Int(),
		ScratchCount:           f["scratchCount"].Int(),
		CommentsCount:          f["commentsCount"].Int(),
		RepliesCount:           f["repliesCount"].Int(),
		ViewCount:              f["viewCount"].Int(),
		TitleSlug:              f["titleSlug"].String(),
		ImageURL:               f["imageURL"].Strings(),
		UserDetail:             f.userDetail(),
		Reference:              f["reference"].String(),
	}
}

func ToComment(d query.Document) models.Comment {
	f := fields(d.Fields)
	id := f["commentId"].String()
	if id == "" {
		id = d.ID()
	}
	return models.Comment{
		ID:           id,
		PostID:       f["postId"].String(),
		Content:      f["commentContent"].String(),
		Username:     f["commentUsername"].String(),
		IsAnonymous:  f["isCommenterSetAnonymous"].Bool(),
		IsDelete:     f["isDelete"].Bool(),
		PawCount:     f["pawCount"].Int(),
		ScratchCount: f["scratchCount"].Int(),
		RepliesCount: f["repliesCount"].Int(),
		CreatedAt:    f["createdAt"].Time(),
		UserDetail:   f.userDetail(),
	}
}

func ToReply(d query.Document) models.Reply {
	f := fields(d.Fields)
	id := f["replyId"].String()
	if id == "" {
		id = d.ID()
	}
	return models.Reply{
		ID:           id,
		Content:      f["reply"].String(),
		Username:     f["replyCreatorUsername"].String(),
		IsAnonymous:  f["isReplierSetAnonymous"].Bool(),
		IsDelete:     f["isDelete"].Bool(),
		PawCount:     f["pawCount"].Int(),
		ScratchCount: f["scratchCount"].Int(),
		CreatedAt:    f["createdAt"].Time(),
	}
}

func (f fields) userDetail() []models.UserDetail {
	out := []models.UserDetail{}
	for _, m := range f["userDetail"].Maps() {
		out = append(out, models.UserDetail{
			UserID:   m["userId"].String(),
			PhotoURL: m["photoURL"].String(),
		})
	}
	return out
}
