package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

type journalPayload struct {
	Content   string `json:"content"`
	Mood      int    `json:"mood" binding:"required,min=1,max=5"`
	MoodEmoji string `json:"mood_emoji"`
}

type journalRangeQuery struct {
	Start string `form:"start" binding:"omitempty,datestr"`
	End   string `form:"end" binding:"omitempty,datestr"`
}

// ListJournal 返回区间内的日记
func (a *API) ListJournal(c *gin.Context) {
	var query journalRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期范围")
		return
	}

	entries, err := a.journal.List(c.Request.Context(), query.Start, query.End)
	if err != nil {
		handleServiceError(c, err, "获取日记失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, journalToPayload(entry, false))
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// GetJournal 返回某天的日记，含渲染后的 HTML
func (a *API) GetJournal(c *gin.Context) {
	entry, err := a.journal.Get(c.Request.Context(), c.Param("date"))
	if err != nil {
		handleServiceError(c, err, "获取日记失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": journalToPayload(*entry, true)})
}

// PutJournal 新建或覆盖某天的日记
func (a *API) PutJournal(c *gin.Context) {
	var payload journalPayload
	if !bindJSON(c, &payload, "日记参数不合法，心情需在 1~5 之间") {
		return
	}

	entry, err := a.journal.Upsert(c.Request.Context(), c.Param("date"), service.JournalInput{
		Content:   payload.Content,
		Mood:      payload.Mood,
		MoodEmoji: payload.MoodEmoji,
	})
	if err != nil {
		handleServiceError(c, err, "保存日记失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": journalToPayload(*entry, true)})
}

// DeleteJournal 删除某天的日记
func (a *API) DeleteJournal(c *gin.Context) {
	if err := a.journal.Delete(c.Request.Context(), c.Param("date")); err != nil {
		handleServiceError(c, err, "删除日记失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func journalToPayload(entry db.JournalEntry, withHTML bool) gin.H {
	item := gin.H{
		"id":         entry.ID,
		"date":       entry.Date,
		"content":    entry.Content,
		"mood":       entry.Mood,
		"mood_emoji": entry.MoodEmoji,
		"updated_at": entry.UpdatedAt,
	}
	if withHTML {
		if rendered, err := renderMarkdown(entry.Content); err == nil {
			item["html"] = rendered
		}
	}
	return item
}
