package postgres

const (
	queryGetOrCreateConversation = `
		INSERT INTO conversations (user_a, user_b)
		VALUES (LEAST($1::bigint, $2::bigint), GREATEST($1::bigint, $2::bigint))
		ON CONFLICT (user_a, user_b) DO NOTHING
		RETURNING id, user_a, user_b, created_at;
	`
	queryGetConversationByPair = `
		SELECT id, user_a, user_b, created_at
		FROM conversations
		WHERE user_a = LEAST($1::bigint, $2::bigint)
		  AND user_b = GREATEST($1::bigint, $2::bigint);
	`
	queryGetConversationByID = `
		SELECT id, user_a, user_b, created_at
		FROM conversations
		WHERE id = $1;
	`
	// Summaries: peer profile, most recent message (if any) and the
	// caller's unread count, newest activity first. Conversations with no
	// messages sort last via the epoch fallback.
	queryListConversationSummaries = `
		SELECT c.id, c.user_a, c.user_b, c.created_at,
		       u.id, u.display_name, u.avatar_url, u.last_active_at,
		       m.id, m.sender_id, m.client_id, m.content, m.media_url, m.media_kind, m.created_at,
		       COALESCE(un.cnt, 0)
		FROM conversations AS c
		JOIN users AS u
		  ON u.id = CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END
		LEFT JOIN LATERAL (
			SELECT id, sender_id, client_id, content, media_url, media_kind, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) AS m ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS cnt
			FROM messages AS msg
			WHERE msg.conversation_id = c.id
			  AND msg.sender_id <> $1
			  AND msg.created_at > COALESCE((
				SELECT r.last_read_at
				FROM conversation_reads AS r
				WHERE r.conversation_id = c.id AND r.user_id = $1
			  ), 'epoch'::timestamptz)
		) AS un ON TRUE
		WHERE c.user_a = $1 OR c.user_b = $1
		ORDER BY COALESCE(m.created_at, 'epoch'::timestamptz) DESC, c.created_at DESC;
	`
	// Forward-only: GREATEST keeps a late-arriving older markRead from
	// erasing the effect of a newer one.
	queryUpsertReadMarker = `
		INSERT INTO conversation_reads (conversation_id, user_id, last_read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id, user_id)
		DO UPDATE SET last_read_at = GREATEST(conversation_reads.last_read_at, EXCLUDED.last_read_at);
	`
	queryGetReadMarker = `
		SELECT last_read_at FROM conversation_reads
		WHERE conversation_id = $1 AND user_id = $2;
	`

	queryAppendMessage = `
		INSERT INTO messages (conversation_id, sender_id, client_id, content, media_url, media_kind)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (conversation_id, client_id) DO NOTHING
		RETURNING id, created_at;
	`
	queryGetMessageByClientID = `
		SELECT id, conversation_id, sender_id, client_id, content, media_url, media_kind, created_at
		FROM messages
		WHERE conversation_id = $1 AND client_id = $2;
	`
	queryMessageHistory = `
		SELECT id, conversation_id, sender_id, client_id, content, media_url, media_kind, created_at
		FROM messages
		WHERE conversation_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4;
	`

	queryIsMutualFollow = `
		SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)
		   AND EXISTS(SELECT 1 FROM follows WHERE follower_id = $2 AND followee_id = $1);
	`
	queryListMutualContacts = `
		SELECT u.id, u.display_name, u.avatar_url, u.last_active_at
		FROM follows AS f
		JOIN follows AS fb
		  ON fb.follower_id = f.followee_id AND fb.followee_id = f.follower_id
		JOIN users AS u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY u.display_name NULLS LAST, u.id;
	`
	queryListOneSidedFollows = `
		SELECT u.id, u.display_name, u.avatar_url, u.last_active_at
		FROM follows AS f
		LEFT JOIN follows AS fb
		  ON fb.follower_id = f.followee_id AND fb.followee_id = f.follower_id
		JOIN users AS u ON u.id = f.followee_id
		WHERE f.follower_id = $1 AND fb.follower_id IS NULL
		ORDER BY u.display_name NULLS LAST, u.id;
	`

	queryTouchLastActive = `
		UPDATE users SET last_active_at = $2 WHERE id = $1;
	`
	queryUserExists = `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1);
	`

	queryResolveSession = `
		SELECT user_id FROM sessions
		WHERE token_hash = $1 AND expires_at > $2;
	`
)
