// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// invitedUserKey is where the gate stores the verified invitee id.
const invitedUserKey = "deskhive.invited_user"

// SignInvitation computes the signature embedded in an invitation link for
// the given user. The host puts it in the sig query parameter alongside
// user_id when it emails the setup URL.
func SignInvitation(secret []byte, userID int64) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(userID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// InvitationGate verifies the user_id/sig query pair on first-time setup
// routes. A request whose signature does not match never reaches the
// handler; on success the verified user id is stored on the context.
func InvitationGate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid invitation"})
			return
		}
		want := SignInvitation(secret, userID)
		if !hmac.Equal([]byte(c.Query("sig")), []byte(want)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid invitation"})
			return
		}
		c.Set(invitedUserKey, userID)
		c.Next()
	}
}

// invitedUser reads the user id the gate verified for this request.
func invitedUser(c *gin.Context) (int64, bool) {
	v, ok := c.Get(invitedUserKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
